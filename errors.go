package kstate

import (
	"errors"
	"io/fs"

	"golang.org/x/sys/unix"
)

var (
	ErrBadName        = errors.New("kstate: invalid state name")
	ErrBadPermissions = errors.New("kstate: invalid permissions")
	ErrSubscribed     = errors.New("kstate: state is already subscribed")
	ErrNotSubscribed  = errors.New("kstate: state is not subscribed")
	ErrActive         = errors.New("kstate: transaction is already active")
	ErrNotActive      = errors.New("kstate: transaction is not active")
	ErrReadOnly       = errors.New("kstate: transaction is read-only")
	ErrStateReadOnly  = errors.New("kstate: write transaction on a read-only state")
	ErrConflict       = errors.New("kstate: state changed during transaction")
)

// Errno maps err onto the C library's return convention: 0 for nil,
// otherwise a negative POSIX errno. OS errors keep their own errno; library
// conditions collapse to the taxonomy the original draws: -EPERM for a
// forbidden or lost commit, -ENOENT for a missing state, -EINVAL for
// everything misused.
func Errno(err error) int {
	if err == nil {
		return 0
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		return -int(errno)
	}
	switch {
	case errors.Is(err, ErrReadOnly), errors.Is(err, ErrConflict):
		return -int(unix.EPERM)
	case errors.Is(err, fs.ErrNotExist):
		return -int(unix.ENOENT)
	default:
		return -int(unix.EINVAL)
	}
}

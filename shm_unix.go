//go:build unix

package kstate

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// shmDir is where canonical names land on the filesystem. /dev/shm is the
// POSIX shared-memory namespace on Linux; elsewhere (or when it is absent)
// the system temporary directory stands in. Variable so tests can isolate
// themselves in a scratch directory.
var shmDir = defaultShmDir()

func defaultShmDir() string {
	if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
		return "/dev/shm"
	}
	return os.TempDir()
}

// functions can be overridden for testing
var mmapFunc = unix.Mmap
var munmapFunc = unix.Munmap
var mprotectFunc = unix.Mprotect
var ftruncateFunc = unix.Ftruncate

// shmPath converts a canonical name ("/kstate.Fred.A") into the path of
// its backing object.
func shmPath(canonical string) string {
	return filepath.Join(shmDir, strings.TrimPrefix(canonical, "/"))
}

// shmOpen opens the shared object behind a canonical name. With create set
// (writable subscribe) the object is made if needed and sized to exactly
// one page; the extended portion reads as zero bytes, which is the
// freshly-created-state guarantee. Without create (read-only subscribe,
// transaction reopen) a missing state surfaces as fs.ErrNotExist rather
// than quietly resurrecting an unlinked name.
func shmOpen(canonical string, writable, create bool, mode fs.FileMode) (*os.File, error) {
	path := shmPath(canonical)
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}
	if create {
		flag |= os.O_CREATE
	}
	f, err := os.OpenFile(path, flag, mode)
	if err != nil {
		return nil, fmt.Errorf("kstate: open %s: %w", path, err)
	}
	if create {
		if err := ftruncateFunc(int(f.Fd()), int64(pageSize)); err != nil {
			closeErr := f.Close()
			if closeErr != nil {
				return nil, fmt.Errorf("kstate: size %s: %w (close: %v)", path, err, closeErr)
			}
			return nil, fmt.Errorf("kstate: size %s: %w", path, err)
		}
	}
	return f, nil
}

// shmUnlink removes the name from the namespace. Existing mappings stay
// valid until their own unmap; only future opens are affected.
func shmUnlink(canonical string) error {
	if err := unix.Unlink(shmPath(canonical)); err != nil {
		return fmt.Errorf("kstate: unlink %s: %w", shmPath(canonical), err)
	}
	return nil
}

// mapShared maps one page of f with the given protection. MAP_SHARED, so a
// writable mapping publishes stores to every other subscriber.
func mapShared(f *os.File, writable bool) ([]byte, error) {
	prot := unix.PROT_READ
	if writable {
		prot |= unix.PROT_WRITE
	}
	b, err := mmapFunc(int(f.Fd()), 0, pageSize, prot, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("kstate: mmap %s: %w", f.Name(), err)
	}
	return b, nil
}

// mapAnon allocates a private page-sized working buffer, read-write. The
// fd of -1 plus MAP_ANON means no file backs it; nobody else ever sees it.
func mapAnon(length int) ([]byte, error) {
	b, err := mmapFunc(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("kstate: mmap anonymous: %w", err)
	}
	return b, nil
}

// protectRead downgrades b to read-only. From here on a store through the
// mapping traps at the MMU; that trap is the read-only guarantee, not any
// check in this library.
func protectRead(b []byte) error {
	if err := mprotectFunc(b, unix.PROT_READ); err != nil {
		return fmt.Errorf("kstate: mprotect: %w", err)
	}
	return nil
}

// unmapBytes releases a mapping from mapShared or mapAnon. Nil-safe.
func unmapBytes(b []byte) error {
	if b == nil {
		return nil
	}
	if err := munmapFunc(b); err != nil {
		return fmt.Errorf("kstate: munmap: %w", err)
	}
	return nil
}

//go:build unix

package kstate

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// flockExclusive takes the exclusive lock on f, waiting for any other
// committer to finish. Commit holds it only across the compare-and-copy,
// so the wait is bounded by a memcmp and a page copy.
func flockExclusive(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("kstate: flock exclusive: %w", err)
	}
	return nil
}

// funlock releases the flock on f.
func funlock(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		return fmt.Errorf("kstate: funlock: %w", err)
	}
	return nil
}

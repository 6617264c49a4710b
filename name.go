package kstate

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// checkName validates a user-supplied state name: nonempty, at most
// MaxNameLen bytes, ASCII alphanumerics and dots only, no leading or
// trailing dot, no adjacent dots.
func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrBadName)
	}
	if len(name) > MaxNameLen {
		return fmt.Errorf("%w: %d bytes exceeds maximum %d", ErrBadName, len(name), MaxNameLen)
	}
	if name[0] == '.' || name[len(name)-1] == '.' {
		return fmt.Errorf("%w: %q may not start or end with '.'", ErrBadName, name)
	}
	prevDot := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '.':
			if prevDot {
				return fmt.Errorf("%w: %q may not have adjacent '.'s", ErrBadName, name)
			}
			prevDot = true
		case c >= '0' && c <= '9', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
			prevDot = false
		default:
			return fmt.Errorf("%w: %q may not contain %q", ErrBadName, name, c)
		}
	}
	return nil
}

// canonicalName prepends the shared-object prefix to a validated user name.
func canonicalName(name string) string {
	return NamePrefix + name
}

// userName strips the prefix back off a canonical name.
func userName(canonical string) string {
	return strings.TrimPrefix(canonical, NamePrefix)
}

var uniqueCounter atomic.Uint32

// UniqueName builds a state name of the form
// prefix.<seconds><microseconds>.<pid>.<counter>. It is only as unique as
// the wall clock plus the process-wide counter affords, which is enough
// for tests and scratch states but is not a cryptographic guarantee.
func UniqueName(prefix string) string {
	now := time.Now()
	n := uniqueCounter.Add(1) - 1
	return fmt.Sprintf("%s.%d%06d.%d.%d", prefix, now.Unix(), now.Nanosecond()/1000, os.Getpid(), n)
}

package kstate

import "os"

// NamePrefix namespaces every state inside the host's shared-memory
// namespace. It is prepended on subscribe and stripped again by the name
// accessors.
const NamePrefix = "/kstate."

// MaxNameLen is the longest user-visible state name the validator accepts.
// The backing file is named "kstate." plus the user name, so where
// filenames are limited to 255 bytes (Linux), names longer than 248 bytes
// pass validation but fail to open with the OS's name-too-long error.
const MaxNameLen = 254

// the OS manages memory in fixed-size chunks called "pages"
// every state occupies exactly one of them; we grab the size once at startup
// and reuse it everywhere instead of asking the OS every time
var pageSize = os.Getpagesize()

// Permissions is the access requested for a state subscription or a
// transaction. Write alone is normalized to Read|Write: a writer can always
// see what it is writing over.
type Permissions uint32

const (
	Read  Permissions = 1 << iota // the state may be read
	Write                         // the state may be written
)

// valid reports whether p is a nonempty subset of Read|Write.
func (p Permissions) valid() bool {
	return p != 0 && p&^(Read|Write) == 0
}

// normalize adds Read back in when only Write was requested.
func (p Permissions) normalize() Permissions {
	if p&Read == 0 {
		p |= Read
	}
	return p
}

func (p Permissions) writable() bool {
	return p&Write != 0
}

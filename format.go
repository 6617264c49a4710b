package kstate

import "fmt"

// String renders the permission set the way the library's diagnostics
// always have: "read", "read|write", or "<no permissions>". A set holding
// Write without Read (one that was never normalized) renders as "write".
func (p Permissions) String() string {
	switch {
	case p&Read != 0 && p&Write != 0:
		return "read|write"
	case p&Read != 0:
		return "read"
	case p&Write != 0:
		return "write"
	default:
		return "<no permissions>"
	}
}

// String describes the state handle, e.g. `State 3 on 'Fred.A' for
// read|write`.
func (s *State) String() string {
	if !s.IsSubscribed() {
		return "State <unsubscribed>"
	}
	return fmt.Sprintf("State %d on '%s' for %s", s.id, userName(s.name), s.perms)
}

// String describes the transaction handle, e.g. `Transaction 7 for
// read|write on 'Fred.A'`.
func (t *Transaction) String() string {
	if !t.IsActive() {
		return "Transaction <not active>"
	}
	return fmt.Sprintf("Transaction %d for %s on '%s'", t.id, t.perms, userName(t.name))
}

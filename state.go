package kstate

import (
	"errors"
	"fmt"
)

// State is a handle on one named page of shared memory. A fresh handle is
// unsubscribed; Subscribe binds it to a state, Unsubscribe releases it, and
// the handle can then be reused. The mapping a subscriber holds is always
// read-only — writes go through a Transaction, and a stray store through
// Bytes traps at the MMU.
type State struct {
	name       string // canonical name; "" marks the handle unsubscribed
	perms      Permissions
	id         uint32
	data       []byte // read-only mapping of the shared page
	retainName bool
}

// NewState allocates an empty, unsubscribed handle. The id is assigned now
// and identifies this handle for its whole lifetime.
func NewState() *State {
	return &State{id: stateIDs.next()}
}

// IsSubscribed reports whether the handle currently maps a state.
func (s *State) IsSubscribed() bool {
	return s != nil && s.name != ""
}

// Subscribe binds the handle to the named state. Writable subscriptions
// create the state if it does not exist yet; its page then reads as zero
// bytes. Read-only subscriptions require the state to exist already.
// Opening an existing state never clears it.
func (s *State) Subscribe(name string, perms Permissions, opts ...SubscribeOption) error {
	if s == nil {
		return fmt.Errorf("kstate: subscribe: nil state: %w", ErrNotSubscribed)
	}
	if s.IsSubscribed() {
		return fmt.Errorf("kstate: subscribe %q: %w", name, ErrSubscribed)
	}
	if !perms.valid() {
		return fmt.Errorf("kstate: subscribe %q: %w: %#x", name, ErrBadPermissions, uint32(perms))
	}
	if err := checkName(name); err != nil {
		return fmt.Errorf("kstate: subscribe: %w", err)
	}
	perms = perms.normalize()
	cfg := applyOptions(opts)

	canonical := canonicalName(name)
	f, err := shmOpen(canonical, perms.writable(), perms.writable(), cfg.createMode)
	if err != nil {
		return fmt.Errorf("kstate: subscribe %q: %w", name, err)
	}

	// The subscriber's own view is read-only no matter what was asked
	// for; Write permission only entitles the handle to create the state
	// and to start writable transactions on it.
	data, err := mapShared(f, false)
	closeErr := f.Close()
	if err != nil {
		return errors.Join(fmt.Errorf("kstate: subscribe %q: %w", name, err), closeErr)
	}
	if closeErr != nil {
		if unmapErr := unmapBytes(data); unmapErr != nil {
			logger.Warn("kstate: subscribe cleanup failed", "name", name, "err", unmapErr)
		}
		return fmt.Errorf("kstate: subscribe %q: %w", name, closeErr)
	}

	s.name = canonical
	s.perms = perms
	s.data = data
	s.retainName = cfg.retainName
	logger.Debug("kstate: subscribed", "state", s.String())
	return nil
}

// Unsubscribe unmaps the state and, unless the subscription asked to
// retain it, unlinks its name so future opens start fresh. Best effort and
// idempotent: adapter failures are logged, and the handle always ends up
// unsubscribed. Transactions already started keep their own mappings and
// are unaffected.
func (s *State) Unsubscribe() {
	if !s.IsSubscribed() {
		return
	}
	logger.Debug("kstate: unsubscribing", "state", s.String())

	if err := unmapBytes(s.data); err != nil {
		logger.Warn("kstate: unsubscribe unmap failed", "state", s.String(), "err", err)
	}
	if !s.retainName {
		if err := shmUnlink(s.name); err != nil {
			logger.Warn("kstate: unsubscribe unlink failed", "state", s.String(), "err", err)
		}
	}

	s.name = ""
	s.perms = 0
	s.data = nil
	s.retainName = false
}

// Close releases the handle, unsubscribing first if needed. Idempotent.
func (s *State) Close() error {
	if s == nil {
		return nil
	}
	s.Unsubscribe()
	return nil
}

// Name returns the user-visible state name, or "" if unsubscribed.
func (s *State) Name() string {
	if !s.IsSubscribed() {
		return ""
	}
	return userName(s.name)
}

// Permissions returns the subscription's permissions, or 0 if unsubscribed.
func (s *State) Permissions() Permissions {
	if !s.IsSubscribed() {
		return 0
	}
	return s.perms
}

// ID returns the handle's id while subscribed, or 0. The id itself is
// stable for the handle's lifetime; only its visibility follows the
// subscription.
func (s *State) ID() uint32 {
	if !s.IsSubscribed() {
		return 0
	}
	return s.id
}

// Bytes returns the read-only view of the shared page, or nil if
// unsubscribed. The slice stops being valid at Unsubscribe. Writing
// through it traps.
func (s *State) Bytes() []byte {
	if !s.IsSubscribed() {
		return nil
	}
	return s.data
}

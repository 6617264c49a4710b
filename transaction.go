package kstate

import (
	"bytes"
	"errors"
	"fmt"
	"os"
)

// Transaction is a snapshot-isolated view of a state. Start copies what is
// committed now; the caller reads or mutates the private working buffer;
// Commit publishes it if and only if the shared page still holds the bytes
// it held at Start.
//
// A transaction holds its own mapping of the shared page, so it stays
// valid even after the State handle it was started from is unsubscribed
// and freed.
type Transaction struct {
	name   string // canonical name of the underlying state
	perms  Permissions
	id     uint32
	active bool

	file     *os.File // kept open: commit flocks it to serialize committers
	live     []byte   // shared page, writable iff the transaction is
	snapshot []byte   // committed bytes at Start; the optimistic-CC reference
	working  []byte   // private buffer handed to the caller
}

// NewTransaction allocates an empty, inactive transaction with a fresh id.
func NewTransaction() *Transaction {
	return &Transaction{id: transactionIDs.next()}
}

// IsActive reports whether the transaction is between Start and
// Commit/Abort.
func (t *Transaction) IsActive() bool {
	return t != nil && t.active
}

// Start opens a transaction on a subscribed state. A write transaction
// needs Write permission on the state. The transaction reopens the shared
// object under its own descriptor and copies the current bytes, so from
// here on it is independent of s.
func (t *Transaction) Start(s *State, perms Permissions) error {
	if t == nil {
		return fmt.Errorf("kstate: start: nil transaction: %w", ErrNotActive)
	}
	if t.active {
		return fmt.Errorf("kstate: start: %w", ErrActive)
	}
	if !s.IsSubscribed() {
		return fmt.Errorf("kstate: start: %w", ErrNotSubscribed)
	}
	if !perms.valid() {
		return fmt.Errorf("kstate: start on %q: %w: %#x", s.Name(), ErrBadPermissions, uint32(perms))
	}
	perms = perms.normalize()
	if perms.writable() && !s.perms.writable() {
		return fmt.Errorf("kstate: start on %q: %w", s.Name(), ErrStateReadOnly)
	}

	t.name = s.name
	t.perms = perms

	f, err := shmOpen(t.name, perms.writable(), false, 0)
	if err != nil {
		t.reset()
		return fmt.Errorf("kstate: start on %q: %w", userName(t.name), err)
	}
	t.file = f

	t.live, err = mapShared(f, perms.writable())
	if err != nil {
		err = fmt.Errorf("kstate: start on %q: %w", userName(t.name), err)
		return errors.Join(err, t.clear())
	}

	// Commit needs to know whether the state moved underneath us; the
	// reference point is a plain private copy taken now.
	if perms.writable() {
		t.snapshot = make([]byte, len(t.live))
		copy(t.snapshot, t.live)
	}

	t.working, err = mapAnon(len(t.live))
	if err != nil {
		err = fmt.Errorf("kstate: start on %q: %w", userName(t.name), err)
		return errors.Join(err, t.clear())
	}
	copy(t.working, t.live)

	if !perms.writable() {
		if err := protectRead(t.working); err != nil {
			err = fmt.Errorf("kstate: start on %q: %w", userName(t.name), err)
			return errors.Join(err, t.clear())
		}
	}

	t.active = true
	logger.Debug("kstate: started", "transaction", t.String())
	return nil
}

// Commit publishes the working buffer into the shared page, provided the
// page still holds the bytes snapshotted at Start. A lost race reports
// ErrConflict and the transaction is torn down anyway; committing a
// read-only transaction reports ErrReadOnly and leaves it active, so the
// caller can still Abort.
//
// The compare-and-copy runs under an exclusive flock on the shared object,
// so two committers cannot interleave and tear the page.
func (t *Transaction) Commit() error {
	if !t.IsActive() {
		return fmt.Errorf("kstate: commit: %w", ErrNotActive)
	}
	if !t.perms.writable() {
		return fmt.Errorf("kstate: commit %q: %w", userName(t.name), ErrReadOnly)
	}

	if err := flockExclusive(t.file); err != nil {
		err = fmt.Errorf("kstate: commit %q: %w", userName(t.name), err)
		return errors.Join(err, t.clear())
	}

	var commitErr error
	switch {
	case !bytes.Equal(t.live, t.snapshot):
		// Someone else committed since Start. Note there is no ABA
		// protection: a change and a change back both compare equal.
		commitErr = fmt.Errorf("kstate: commit %q: %w", userName(t.name), ErrConflict)
	case bytes.Equal(t.live, t.working):
		// Nothing to write.
	default:
		copy(t.live, t.working)
	}

	unlockErr := funlock(t.file)
	clearErr := t.clear()
	if commitErr != nil {
		logger.Debug("kstate: commit lost", "name", userName(t.name), "err", commitErr)
		return errors.Join(commitErr, unlockErr, clearErr)
	}
	return errors.Join(unlockErr, clearErr)
}

// Abort discards the working buffer and releases the transaction's
// resources. Aborting an inactive transaction fails.
func (t *Transaction) Abort() error {
	if !t.IsActive() {
		return fmt.Errorf("kstate: abort: %w", ErrNotActive)
	}
	logger.Debug("kstate: aborting", "transaction", t.String())
	return t.clear()
}

// Close releases the handle, aborting first if still active. Idempotent.
func (t *Transaction) Close() error {
	if !t.IsActive() {
		return nil
	}
	return t.Abort()
}

// clear releases every resource the transaction holds and leaves it
// inactive, regardless of partial failures along the way.
func (t *Transaction) clear() error {
	var errs []error
	if err := unmapBytes(t.live); err != nil {
		errs = append(errs, err)
	}
	if err := unmapBytes(t.working); err != nil {
		errs = append(errs, err)
	}
	if t.file != nil {
		if err := t.file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	t.reset()
	return errors.Join(errs...)
}

func (t *Transaction) reset() {
	t.name = ""
	t.perms = 0
	t.active = false
	t.file = nil
	t.live = nil
	t.snapshot = nil
	t.working = nil
}

// Name returns the user-visible name of the underlying state, or "" if the
// transaction is not active.
func (t *Transaction) Name() string {
	if !t.IsActive() {
		return ""
	}
	return userName(t.name)
}

// Permissions returns the transaction's permissions, or 0 if not active.
func (t *Transaction) Permissions() Permissions {
	if !t.IsActive() {
		return 0
	}
	return t.perms
}

// ID returns the handle's id while active, or 0.
func (t *Transaction) ID() uint32 {
	if !t.IsActive() {
		return 0
	}
	return t.id
}

// Bytes returns the transaction's working buffer, or nil if not active.
// Writable transactions may mutate it; a read-only transaction's buffer
// traps on write. The slice stops being valid at Commit or Abort.
func (t *Transaction) Bytes() []byte {
	if !t.IsActive() {
		return nil
	}
	return t.working
}

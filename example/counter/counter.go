// Package counter shows the intended shape of a kstate client: a shared
// uint64 living at the start of a state's page, bumped through optimistic
// transactions with a bounded retry loop.
package counter

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/CreditWorthy/kstate"
)

// maxRetries bounds the commit loop. Each retry restarts from a fresh
// snapshot, so under real contention progress is made by somebody even
// when this caller gives up.
const maxRetries = 16

// Counter is a process-shared counter backed by a named state.
type Counter struct {
	state *kstate.State
}

// Open subscribes to (creating if needed) the named counter state.
func Open(name string) (*Counter, error) {
	s := kstate.NewState()
	if err := s.Subscribe(name, kstate.Read|kstate.Write, kstate.WithRetainOnUnsubscribe()); err != nil {
		return nil, fmt.Errorf("counter: open %q: %w", name, err)
	}
	return &Counter{state: s}, nil
}

// Close releases the subscription. The counter's name stays linked so
// other processes keep their view.
func (c *Counter) Close() error {
	return c.state.Close()
}

// Value reads the counter through a read-only transaction, so the value is
// a committed one rather than a glimpse of a commit in flight.
func (c *Counter) Value() (uint64, error) {
	txn := kstate.NewTransaction()
	if err := txn.Start(c.state, kstate.Read); err != nil {
		return 0, fmt.Errorf("counter: read: %w", err)
	}
	v := binary.BigEndian.Uint64(txn.Bytes())
	if err := txn.Abort(); err != nil {
		return 0, fmt.Errorf("counter: read: %w", err)
	}
	return v, nil
}

// Add increments the counter by delta and returns the new value,
// retrying when another writer commits first.
func (c *Counter) Add(delta uint64) (uint64, error) {
	for try := 0; try < maxRetries; try++ {
		txn := kstate.NewTransaction()
		if err := txn.Start(c.state, kstate.Read|kstate.Write); err != nil {
			return 0, fmt.Errorf("counter: add: %w", err)
		}

		b := txn.Bytes()
		v := binary.BigEndian.Uint64(b) + delta
		binary.BigEndian.PutUint64(b, v)

		err := txn.Commit()
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, kstate.ErrConflict) {
			return 0, fmt.Errorf("counter: add: %w", err)
		}
		// Lost the race; take a new snapshot and go again.
	}
	return 0, fmt.Errorf("counter: add: gave up after %d conflicts", maxRetries)
}

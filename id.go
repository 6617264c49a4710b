package kstate

import "sync/atomic"

// idCounter hands out process-wide monotonic nonzero ids. 0 is reserved to
// mean "no handle", so the counter skips it on wrap.
type idCounter struct {
	last atomic.Uint32
}

func (c *idCounter) next() uint32 {
	for {
		if id := c.last.Add(1); id != 0 {
			return id
		}
	}
}

// One counter per handle kind: equal state ids imply the same State handle,
// equal transaction ids the same Transaction handle.
var (
	stateIDs       idCounter
	transactionIDs idCounter
)

package testutil

import (
	"sync"

	"github.com/matrix-org/gomatrixserverlib/spec"
)

// DefaultBaseTS is the first timestamp handed out by a new clock
// (2023-11-14T22:13:20Z).
const DefaultBaseTS spec.Timestamp = 1700000000000

// DeterministicClock hands out origin_server_ts values for fixture events.
//
// Each call to Next advances by one second, so event order in fixtures is
// stable and readable in golden files.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	base spec.Timestamp
	ts   spec.Timestamp
}

// NewDeterministicClock creates a clock starting at base. A zero base uses
// DefaultBaseTS.
func NewDeterministicClock(base spec.Timestamp) *DeterministicClock {
	if base == 0 {
		base = DefaultBaseTS
	}
	return &DeterministicClock{base: base, ts: base}
}

// Next returns the current timestamp and advances the clock.
func (c *DeterministicClock) Next() spec.Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := c.ts
	c.ts += 1000
	return ts
}

// Current returns the next timestamp without advancing.
func (c *DeterministicClock) Current() spec.Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ts
}

// Reset rewinds the clock to its base.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ts = c.base
}

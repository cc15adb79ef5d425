package trace

import (
	"sync/atomic"
	"time"
)

// Compensator estimates how long the tail of a merge (encoding and truncation)
// takes. That cost is only known after the header text exists, so each call
// reports the previous call's measurement instead.
//
// Concurrent merges race on the stored value; the last write wins.
type Compensator struct {
	last atomic.Int64
}

// NewCompensator returns a compensator whose first estimate adds nothing.
func NewCompensator() *Compensator {
	return &Compensator{}
}

// Estimate returns elapsed plus the last recorded finalization duration.
func (c *Compensator) Estimate(elapsed time.Duration) time.Duration {
	return elapsed + c.Last()
}

// Record stores the finalization duration measured by the current call.
func (c *Compensator) Record(d time.Duration) {
	if d < 0 {
		d = 0
	}
	c.last.Store(int64(d))
}

// Last returns the most recently recorded finalization duration.
func (c *Compensator) Last() time.Duration {
	return time.Duration(c.last.Load())
}

package request

import "sync/atomic"

// Clock is a monotonic logical clock. Every committed change of a request is
// stamped with Next(), so notification order equals commit order.
type Clock struct {
	seq atomic.Int64
}

// Next returns the next sequence number. The first call returns 1.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

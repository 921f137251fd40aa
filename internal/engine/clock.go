package engine

import "sync/atomic"

// Clock is the logical clock that numbers trace events.
//
// Every observation of a build gets the next seq, starting at 1. No wall
// clock is involved, so two builds of the same model number their traces
// identically.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose next seq is start+1. Used when appending
// to a trace that was read back from the journal.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new seq.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last seq handed out, 0 if none.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

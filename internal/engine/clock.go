package engine

import "sync/atomic"

// Clock hands out load generations. Every completed Source load in a
// Database takes the next value, so across all Sources of one Database a
// higher generation always means newer data.
type Clock struct {
	last atomic.Int64
}

// NewClock creates a clock that has handed out nothing yet.
func NewClock() *Clock { return new(Clock) }

// Next advances the clock and returns the new generation.
func (c *Clock) Next() int64 { return c.last.Add(1) }

// Current returns the last generation handed out, or 0 before any load.
func (c *Clock) Current() int64 { return c.last.Load() }

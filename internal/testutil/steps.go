package testutil

import "sync/atomic"

// StepCounter numbers harness trace entries 1, 2, 3, ... so a scenario
// run twice records identical steps. The zero value is ready to use.
type StepCounter struct {
	n atomic.Int64
}

// NewStepCounter returns a counter whose first Next is 1.
func NewStepCounter() *StepCounter { return &StepCounter{} }

// Next returns the number of the next trace entry.
func (s *StepCounter) Next() int64 { return s.n.Add(1) }

// Last returns the most recent number handed out, 0 before any.
func (s *StepCounter) Last() int64 { return s.n.Load() }

// Rewind restarts numbering, typically between runs of one scenario.
func (s *StepCounter) Rewind() { s.n.Store(0) }

package testutil

import (
	"sync"
	"time"
)

// StepClock is a thread-safe clock that advances by a fixed step on every
// call to Now, so rows created in a test get strictly increasing timestamps.
type StepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func NewStepClock(start time.Time, step time.Duration) *StepClock {
	return &StepClock{now: start, step: step}
}

func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

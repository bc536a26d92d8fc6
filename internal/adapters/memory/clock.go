package memory

import (
	"context"
	"sync"
	"time"
)

// SystemClock reads the process wall clock in UTC. Suitable only for
// single-process deployments where one process is the sole time authority.
type SystemClock struct{}

func (SystemClock) Now(ctx context.Context) (time.Time, error) {
	return time.Now().UTC(), nil
}

// FixedClock returns a settable fixed instant. Test use only.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

func (c *FixedClock) Now(ctx context.Context) (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now, nil
}

// Set moves the clock to a new instant.
func (c *FixedClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

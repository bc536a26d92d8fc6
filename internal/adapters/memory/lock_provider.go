package memory

import (
	"context"
	"sync"
)

// LockProvider serializes access per resource ID inside a single process.
// Two phases: a registry mutex guards lock creation, then the per-resource
// lock itself is taken. Per-resource locks are buffered channels rather than
// sync.Mutex so acquisition can be abandoned on ctx cancellation.
//
// Locks are never evicted; the registry grows with the set of payment ids
// seen. Single-process only.
type LockProvider struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewLockProvider() *LockProvider {
	return &LockProvider{
		locks: make(map[string]chan struct{}),
	}
}

// Acquire blocks until the resource lock is free or ctx is done. On success
// the returned release function must be called exactly once.
func (p *LockProvider) Acquire(ctx context.Context, resourceID string) (func(), error) {
	p.mu.Lock()
	lock, ok := p.locks[resourceID]
	if !ok {
		lock = make(chan struct{}, 1)
		p.locks[resourceID] = lock
	}
	p.mu.Unlock()

	select {
	case lock <- struct{}{}:
		return func() { <-lock }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// NoOpLockProvider performs no locking. For single-threaded tests only;
// never use where race handling is under test.
type NoOpLockProvider struct{}

func (NoOpLockProvider) Acquire(ctx context.Context, resourceID string) (func(), error) {
	return func() {}, nil
}

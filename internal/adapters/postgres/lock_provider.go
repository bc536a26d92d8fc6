package postgres

import (
	"context"
	"fmt"
	"log/slog"
)

// AdvisoryLockProvider serializes per-payment work across processes using
// Postgres advisory locks. Each acquisition pins one pooled connection for
// the lock's lifetime; the lock key is hashtextextended of the resource id,
// so distinct payments never contend.
type AdvisoryLockProvider struct {
	db     *DB
	logger *slog.Logger
}

func NewAdvisoryLockProvider(db *DB, logger *slog.Logger) *AdvisoryLockProvider {
	return &AdvisoryLockProvider{db: db, logger: logger}
}

// Acquire blocks on pg_advisory_lock until the lock is granted or ctx is
// done. The returned release unlocks and returns the connection to the pool.
func (p *AdvisoryLockProvider) Acquire(ctx context.Context, resourceID string) (func(), error) {
	conn, err := p.db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for advisory lock: %w", err)
	}

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock(hashtextextended($1, 0))`, resourceID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to acquire advisory lock: %w", err)
	}

	release := func() {
		// Unlock on a background context: release must succeed even when
		// the request context is already cancelled.
		if _, err := conn.Exec(context.Background(), `SELECT pg_advisory_unlock(hashtextextended($1, 0))`, resourceID); err != nil {
			p.logger.Error("failed to release advisory lock", "resource_id", resourceID, "error", err)
		}
		conn.Release()
	}
	return release, nil
}

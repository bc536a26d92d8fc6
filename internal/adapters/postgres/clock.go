package postgres

import (
	"context"
	"fmt"
	"time"
)

// Clock reads the database server's clock, making Postgres the single time
// authority across every process. Client wall clocks never enter a capture
// decision.
type Clock struct {
	db *DB
}

func NewClock(db *DB) *Clock {
	return &Clock{db: db}
}

func (c *Clock) Now(ctx context.Context) (time.Time, error) {
	var now time.Time
	if err := c.db.Pool.QueryRow(ctx, `SELECT now()`).Scan(&now); err != nil {
		return time.Time{}, fmt.Errorf("failed to read database clock: %w", err)
	}
	return now.UTC(), nil
}

package ports

import (
	"context"
	"time"
)

// Clock supplies authoritative current time. Every time comparison in the
// core goes through one Clock so client clock skew never reaches a decision.
// Backed by the database clock in multi-process deployments.
type Clock interface {
	Now(ctx context.Context) (time.Time, error)
}

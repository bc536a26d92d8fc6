// Package ports defines the contracts the payments core depends on.
// Adapters (in-memory, Postgres) satisfy these; the core never sees a
// concrete store.
package ports

import (
	"context"

	"github.com/DanielPopoola/payments-core/internal/core/domain"
	"github.com/google/uuid"
)

// PaymentRepository owns Payment records.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error

	// Get returns the payment or a PAYMENT_NOT_FOUND domain error.
	Get(ctx context.Context, id uuid.UUID) (*domain.Payment, error)

	// Save writes the payment back, checking the optimistic version: if the
	// stored row's version no longer matches payment.Version the save fails
	// with a VERSION_CONFLICT domain error and the caller must re-read.
	// On success the payment's version is advanced.
	Save(ctx context.Context, payment *domain.Payment) error
}

// CaptureRepository owns Capture attempt records.
type CaptureRepository interface {
	// FindByIdempotencyKey returns the capture for (paymentID, key), or
	// (nil, nil) when absent.
	FindByIdempotencyKey(ctx context.Context, paymentID uuid.UUID, key domain.IdempotencyKey) (*domain.Capture, error)

	// Insert persists a new capture row. A second insert for the same
	// (payment_id, idempotency_key) fails with a DUPLICATE_CAPTURE domain
	// error; this unique constraint is the last line of defense against
	// races that slip past the lock.
	Insert(ctx context.Context, capture *domain.Capture) error
}

// AtomicStore executes a payment update and a capture insert as one unit:
// both commit or neither does.
type AtomicStore interface {
	WithPaymentAndCapture(
		ctx context.Context,
		paymentID uuid.UUID,
		fn func(ctx context.Context, payments PaymentRepository, captures CaptureRepository) error,
	) error
}

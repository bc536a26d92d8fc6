package postgres

import (
	"context"
	"fmt"

	"github.com/DanielPopoola/payments-core/internal/core/ports"
	"github.com/google/uuid"
)

// Store coordinates the combined payment/capture write in one database
// transaction.
type Store struct {
	db *DB
}

func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// WithPaymentAndCapture executes fn with repositories bound to a single
// transaction: the payment update and the capture insert commit together or
// not at all.
func (s *Store) WithPaymentAndCapture(
	ctx context.Context,
	paymentID uuid.UUID,
	fn func(ctx context.Context, payments ports.PaymentRepository, captures ports.CaptureRepository) error,
) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txPayments := &PaymentRepository{q: tx}
	txCaptures := &CaptureRepository{q: tx}

	if err := fn(ctx, txPayments, txCaptures); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

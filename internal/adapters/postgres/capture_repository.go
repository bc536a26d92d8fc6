package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanielPopoola/payments-core/internal/core/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CaptureRepository struct {
	q Executor
}

func NewCaptureRepository(db *DB) *CaptureRepository {
	return &CaptureRepository{q: db.Pool}
}

func (r *CaptureRepository) FindByIdempotencyKey(ctx context.Context, paymentID uuid.UUID, key domain.IdempotencyKey) (*domain.Capture, error) {
	query := `
		SELECT id, payment_id, idempotency_key, status, reason,
			amount_cents, payment_status, created_at
		FROM captures
		WHERE payment_id = $1 AND idempotency_key = $2
	`

	var c domain.Capture
	err := r.q.QueryRow(ctx, query, paymentID, key.String()).Scan(
		&c.ID,
		&c.PaymentID,
		&c.IdempotencyKey,
		&c.Status,
		&c.Reason,
		&c.AmountCents,
		&c.PaymentStatus,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find capture: %w", err)
	}

	return &c, nil
}

func (r *CaptureRepository) Insert(ctx context.Context, c *domain.Capture) error {
	query := `
		INSERT INTO captures (
			id, payment_id, idempotency_key, status, reason,
			amount_cents, payment_status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.Exec(ctx, query,
		c.ID,
		c.PaymentID,
		c.IdempotencyKey.String(),
		c.Status,
		c.Reason,
		c.AmountCents,
		c.PaymentStatus,
		c.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return domain.NewDuplicateCaptureError(c.PaymentID.String(), c.IdempotencyKey)
		}
		return fmt.Errorf("failed to insert capture: %w", err)
	}
	return nil
}

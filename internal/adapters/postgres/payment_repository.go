package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanielPopoola/payments-core/internal/core/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PaymentRepository struct {
	q Executor
}

func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{q: db.Pool}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id, status, authorized_at, capture_expires_at, captured_at,
			captured_amount_cents, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	p.Version = 1
	_, err := r.q.Exec(ctx, query,
		p.ID,
		p.Status,
		p.AuthorizedAt,
		p.CaptureExpiresAt,
		p.CapturedAt,
		p.CapturedAmountCents,
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `
		SELECT id, status, authorized_at, capture_expires_at, captured_at,
			captured_amount_cents, version, created_at, updated_at
		FROM payments
		WHERE id = $1
	`

	row := r.q.QueryRow(ctx, query, id)
	return scanPayment(row, id.String())
}

// Save writes the payment back guarded by the optimistic version column.
// A row that moved since the read matches nothing and surfaces as
// VERSION_CONFLICT.
func (r *PaymentRepository) Save(ctx context.Context, p *domain.Payment) error {
	query := `
		UPDATE payments
		SET status = $1,
			authorized_at = $2,
			capture_expires_at = $3,
			captured_at = $4,
			captured_amount_cents = $5,
			version = version + 1,
			updated_at = $6
		WHERE id = $7 AND version = $8
	`

	cmdTag, err := r.q.Exec(ctx, query,
		p.Status,
		p.AuthorizedAt,
		p.CaptureExpiresAt,
		p.CapturedAt,
		p.CapturedAmountCents,
		p.UpdatedAt,
		p.ID,
		p.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		// Distinguish a missing row from a stale version.
		var exists bool
		checkErr := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE id = $1)`, p.ID).Scan(&exists)
		if checkErr != nil {
			return fmt.Errorf("failed to check payment existence: %w", checkErr)
		}
		if !exists {
			return domain.NewPaymentNotFoundError(p.ID.String())
		}
		return domain.NewVersionConflictError(p.ID.String())
	}

	p.Version++
	return nil
}

func scanPayment(row pgx.Row, id string) (*domain.Payment, error) {
	var p domain.Payment

	err := row.Scan(
		&p.ID,
		&p.Status,
		&p.AuthorizedAt,
		&p.CaptureExpiresAt,
		&p.CapturedAt,
		&p.CapturedAmountCents,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewPaymentNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}

	return &p, nil
}

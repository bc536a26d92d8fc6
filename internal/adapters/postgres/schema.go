package postgres

import (
	"context"
	"fmt"
)

// Schema creates the payments and captures tables. The unique index on
// (payment_id, idempotency_key) is the idempotency anchor and must exist in
// every environment.
const Schema = `
CREATE TABLE IF NOT EXISTS payments (
	id UUID PRIMARY KEY,
	status TEXT NOT NULL,
	authorized_at TIMESTAMPTZ,
	capture_expires_at TIMESTAMPTZ,
	captured_at TIMESTAMPTZ,
	captured_amount_cents BIGINT,
	version BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS captures (
	id UUID PRIMARY KEY,
	payment_id UUID NOT NULL REFERENCES payments(id),
	idempotency_key TEXT NOT NULL,
	status TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	amount_cents BIGINT NOT NULL,
	payment_status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	CONSTRAINT captures_payment_id_idempotency_key_key UNIQUE (payment_id, idempotency_key)
);
`

// Migrate applies the schema.
func Migrate(ctx context.Context, db *DB) error {
	if _, err := db.Pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

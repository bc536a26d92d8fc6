package domain

import (
	"time"

	"github.com/google/uuid"
)

// CaptureStatus is the terminal outcome of a capture attempt. A Capture row
// is written only once the outcome is known, so there is no in-progress
// status.
type CaptureStatus string

const (
	CaptureSucceeded CaptureStatus = "SUCCEEDED"
	CaptureRejected  CaptureStatus = "REJECTED"
)

// RejectionReason explains a REJECTED capture. Empty for succeeded captures.
type RejectionReason string

const (
	ReasonNone       RejectionReason = ""
	ReasonWrongState RejectionReason = "wrong_state"
	ReasonExpired    RejectionReason = "expired"
)

// Capture records one idempotent capture attempt against a payment. Rows are
// immutable after insert; the pair (PaymentID, IdempotencyKey) is unique
// across all rows and anchors idempotency.
type Capture struct {
	ID             uuid.UUID
	PaymentID      uuid.UUID
	IdempotencyKey IdempotencyKey
	Status         CaptureStatus
	Reason         RejectionReason
	AmountCents    int64

	// PaymentStatus snapshots the payment state observed when this attempt
	// was resolved, so replays return the same result even after the payment
	// has moved on through a different key.
	PaymentStatus PaymentStatus

	CreatedAt time.Time
}

// NewSucceededCapture builds the record for a successful capture.
func NewSucceededCapture(paymentID uuid.UUID, key IdempotencyKey, amountCents int64, now time.Time) (*Capture, error) {
	return newCapture(paymentID, key, CaptureSucceeded, ReasonNone, StatusCaptured, amountCents, now)
}

// NewRejectedCapture builds the record for a rejected attempt. The requested
// amount is recorded even on rejection for audit purposes.
func NewRejectedCapture(paymentID uuid.UUID, key IdempotencyKey, reason RejectionReason, paymentStatus PaymentStatus, amountCents int64, now time.Time) (*Capture, error) {
	return newCapture(paymentID, key, CaptureRejected, reason, paymentStatus, amountCents, now)
}

func newCapture(paymentID uuid.UUID, key IdempotencyKey, status CaptureStatus, reason RejectionReason, paymentStatus PaymentStatus, amountCents int64, now time.Time) (*Capture, error) {
	if amountCents <= 0 {
		return nil, NewInvalidAmountError(amountCents)
	}
	return &Capture{
		ID:             uuid.New(),
		PaymentID:      paymentID,
		IdempotencyKey: key,
		Status:         status,
		Reason:         reason,
		AmountCents:    amountCents,
		PaymentStatus:  paymentStatus,
		CreatedAt:      now,
	}, nil
}

// Clone returns an independent copy.
func (c *Capture) Clone() *Capture {
	cp := *c
	return &cp
}

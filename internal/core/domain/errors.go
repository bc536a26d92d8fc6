package domain

import (
	"errors"
	"fmt"
	"time"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInvalidTransition     = "INVALID_TRANSITION"
	ErrCodePaymentNotFound       = "PAYMENT_NOT_FOUND"
	ErrCodeInvalidAmount         = "INVALID_AMOUNT"
	ErrCodeInvalidCaptureWindow  = "INVALID_CAPTURE_WINDOW"
	ErrCodeInvalidIdempotencyKey = "INVALID_IDEMPOTENCY_KEY"
	ErrCodeIdempotencyKeyReuse   = "IDEMPOTENCY_KEY_REUSE"
	ErrCodeDuplicateCapture      = "DUPLICATE_CAPTURE"
	ErrCodeVersionConflict       = "VERSION_CONFLICT"
	ErrCodeUnavailable           = "UNAVAILABLE"
)

// IsErrorCode reports whether err is (or wraps) a DomainError with the given code.
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

func NewInvalidTransitionError(from PaymentStatus, event PaymentEvent) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot apply %s to payment in state %s", event, from),
	}
}

func NewPaymentNotFoundError(id string) *DomainError {
	return &DomainError{
		Code:    ErrCodePaymentNotFound,
		Message: fmt.Sprintf("payment not found: %s", id),
	}
}

func NewInvalidAmountError(amountCents int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: fmt.Sprintf("capture amount must be greater than 0, got %d", amountCents),
	}
}

func NewInvalidCaptureWindowError(window time.Duration) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidCaptureWindow,
		Message: fmt.Sprintf("capture window must be positive, got %s", window),
	}
}

func NewInvalidIdempotencyKeyError(msg string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidIdempotencyKey,
		Message: msg,
	}
}

func NewIdempotencyKeyReuseError(key IdempotencyKey, recorded, requested int64) *DomainError {
	return &DomainError{
		Code: ErrCodeIdempotencyKeyReuse,
		Message: fmt.Sprintf(
			"idempotency key %q already used with amount_cents=%d, but request has amount_cents=%d",
			key, recorded, requested,
		),
	}
}

func NewDuplicateCaptureError(paymentID string, key IdempotencyKey) *DomainError {
	return &DomainError{
		Code:    ErrCodeDuplicateCapture,
		Message: fmt.Sprintf("capture already exists for payment_id=%s, idempotency_key=%s", paymentID, key),
	}
}

func NewVersionConflictError(paymentID string) *DomainError {
	return &DomainError{
		Code:    ErrCodeVersionConflict,
		Message: fmt.Sprintf("payment %s was modified concurrently", paymentID),
	}
}

func NewUnavailableError(err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeUnavailable,
		Message: "store conflict retries exhausted",
		Err:     err,
	}
}

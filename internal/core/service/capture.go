package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DanielPopoola/payments-core/internal/core/domain"
	"github.com/DanielPopoola/payments-core/internal/core/ports"
	"github.com/google/uuid"
)

// maxConflictRetries bounds internal re-reads after an optimistic store
// conflict before surfacing UNAVAILABLE.
const maxConflictRetries = 3

// CaptureResult is the outcome of a capture request. Replays of the same
// (payment_id, idempotency_key) receive the same Status, Reason, AmountCents
// and PaymentStatus as the original call.
type CaptureResult struct {
	CaptureID     uuid.UUID
	PaymentID     uuid.UUID
	Status        domain.CaptureStatus
	Reason        domain.RejectionReason
	AmountCents   int64
	PaymentStatus domain.PaymentStatus
	Replayed      bool
}

// CaptureService orchestrates the capture workflow: per-payment
// serialization, idempotent replay resolution, window validation against the
// authoritative clock, and the atomic combined write.
type CaptureService struct {
	payments ports.PaymentRepository
	captures ports.CaptureRepository
	atomic   ports.AtomicStore
	clock    ports.Clock
	locks    ports.LockProvider
	logger   *slog.Logger
}

func NewCaptureService(
	payments ports.PaymentRepository,
	captures ports.CaptureRepository,
	atomic ports.AtomicStore,
	clock ports.Clock,
	locks ports.LockProvider,
	logger *slog.Logger,
) *CaptureService {
	return &CaptureService{
		payments: payments,
		captures: captures,
		atomic:   atomic,
		clock:    clock,
		locks:    locks,
		logger:   logger,
	}
}

// RequestCapture processes one capture request exactly once per
// (payment_id, idempotency_key). Races are resolved internally into one of
// the two legitimate outcomes; only input errors, PAYMENT_NOT_FOUND and
// store unavailability reach the caller.
func (s *CaptureService) RequestCapture(ctx context.Context, paymentID uuid.UUID, rawKey string, amountCents int64) (*CaptureResult, error) {
	key, err := domain.NewIdempotencyKey(rawKey)
	if err != nil {
		return nil, err
	}
	if amountCents <= 0 {
		return nil, domain.NewInvalidAmountError(amountCents)
	}

	// Sole concurrency boundary: everything below runs as if
	// single-threaded per payment. A caller that times out here has
	// produced no side effects.
	release, err := s.locks.Acquire(ctx, paymentID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to acquire payment lock: %w", err)
	}
	defer release()

	var lastErr error
	for attempt := 1; attempt <= maxConflictRetries; attempt++ {
		result, err := s.attempt(ctx, paymentID, key, amountCents)
		if err == nil {
			return result, nil
		}

		switch {
		case domain.IsErrorCode(err, domain.ErrCodeVersionConflict):
			// Someone raced us past the lock (second process, stale read).
			// Re-read and decide again.
			lastErr = err
			s.logger.Warn("optimistic conflict during capture, retrying",
				"payment_id", paymentID,
				"attempt", attempt,
			)

		case domain.IsErrorCode(err, domain.ErrCodeDuplicateCapture):
			// The unique constraint fired: another writer just resolved
			// this idempotency key. Their result is ours.
			return s.replayExisting(ctx, paymentID, key, amountCents)

		default:
			return nil, err
		}
	}

	return nil, domain.NewUnavailableError(lastErr)
}

// attempt runs one read-decide-write pass under the lock.
func (s *CaptureService) attempt(ctx context.Context, paymentID uuid.UUID, key domain.IdempotencyKey, amountCents int64) (*CaptureResult, error) {
	existing, err := s.captures.FindByIdempotencyKey(ctx, paymentID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing != nil {
		return resolveReplay(existing, key, amountCents)
	}

	payment, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	now, err := s.clock.Now(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read clock: %w", err)
	}

	if payment.Status != domain.StatusAuthorized {
		capture, err := domain.NewRejectedCapture(paymentID, key, domain.ReasonWrongState, payment.Status, amountCents, now)
		if err != nil {
			return nil, err
		}
		if err := s.captures.Insert(ctx, capture); err != nil {
			return nil, err
		}
		return resultFromCapture(capture, false), nil
	}

	if !payment.CanCapture(now) {
		// Window lapsed: now >= capture_expires_at. The payment fails and
		// the attempt is recorded as rejected, together.
		if err := payment.Fail(now); err != nil {
			return nil, err
		}
		capture, err := domain.NewRejectedCapture(paymentID, key, domain.ReasonExpired, domain.StatusFailed, amountCents, now)
		if err != nil {
			return nil, err
		}
		if err := s.commitAtomic(ctx, payment, capture); err != nil {
			return nil, err
		}
		return resultFromCapture(capture, false), nil
	}

	if err := payment.Capture(now, amountCents); err != nil {
		return nil, err
	}
	capture, err := domain.NewSucceededCapture(paymentID, key, amountCents, now)
	if err != nil {
		return nil, err
	}
	if err := s.commitAtomic(ctx, payment, capture); err != nil {
		return nil, err
	}

	return resultFromCapture(capture, false), nil
}

// commitAtomic persists the payment update and the capture insert as one
// unit: both commit or neither does.
func (s *CaptureService) commitAtomic(ctx context.Context, payment *domain.Payment, capture *domain.Capture) error {
	return s.atomic.WithPaymentAndCapture(ctx, payment.ID, func(ctx context.Context, payments ports.PaymentRepository, captures ports.CaptureRepository) error {
		if err := payments.Save(ctx, payment); err != nil {
			return err
		}
		return captures.Insert(ctx, capture)
	})
}

// replayExisting re-reads the capture row another writer just committed and
// returns its recorded result.
func (s *CaptureService) replayExisting(ctx context.Context, paymentID uuid.UUID, key domain.IdempotencyKey, amountCents int64) (*CaptureResult, error) {
	existing, err := s.captures.FindByIdempotencyKey(ctx, paymentID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read capture after duplicate insert: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("duplicate capture reported but no row found for payment_id=%s key=%s", paymentID, key)
	}
	return resolveReplay(existing, key, amountCents)
}

// resolveReplay returns the recorded result for an idempotent replay. A key
// reused with a different amount is an input error, not a replay.
func resolveReplay(existing *domain.Capture, key domain.IdempotencyKey, amountCents int64) (*CaptureResult, error) {
	if existing.AmountCents != amountCents {
		return nil, domain.NewIdempotencyKeyReuseError(key, existing.AmountCents, amountCents)
	}
	return resultFromCapture(existing, true), nil
}

func resultFromCapture(c *domain.Capture, replayed bool) *CaptureResult {
	return &CaptureResult{
		CaptureID:     c.ID,
		PaymentID:     c.PaymentID,
		Status:        c.Status,
		Reason:        c.Reason,
		AmountCents:   c.AmountCents,
		PaymentStatus: c.PaymentStatus,
		Replayed:      replayed,
	}
}

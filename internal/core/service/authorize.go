package service

import (
	"context"
	"fmt"
	"time"

	"github.com/DanielPopoola/payments-core/internal/core/domain"
	"github.com/DanielPopoola/payments-core/internal/core/ports"
	"github.com/google/uuid"
)

// AuthorizeService drives the pre-capture part of the lifecycle: creating
// pending payments and opening their capture window. Capture itself is the
// CaptureService's job; after authorization a payment is mutated only by it.
type AuthorizeService struct {
	payments ports.PaymentRepository
	clock    ports.Clock
	locks    ports.LockProvider
}

func NewAuthorizeService(payments ports.PaymentRepository, clock ports.Clock, locks ports.LockProvider) *AuthorizeService {
	return &AuthorizeService{
		payments: payments,
		clock:    clock,
		locks:    locks,
	}
}

// CreatePending creates a new payment in the PENDING state.
func (s *AuthorizeService) CreatePending(ctx context.Context) (*domain.Payment, error) {
	now, err := s.clock.Now(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read clock: %w", err)
	}

	payment := domain.NewPayment(now)
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// Authorize transitions a pending payment to AUTHORIZED, setting
// authorized_at and capture_expires_at together from the authoritative
// clock.
func (s *AuthorizeService) Authorize(ctx context.Context, paymentID uuid.UUID, captureWindow time.Duration) (*domain.Payment, error) {
	if captureWindow <= 0 {
		return nil, domain.NewInvalidCaptureWindowError(captureWindow)
	}

	release, err := s.locks.Acquire(ctx, paymentID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to acquire payment lock: %w", err)
	}
	defer release()

	payment, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	now, err := s.clock.Now(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read clock: %w", err)
	}

	if err := payment.Authorize(now, captureWindow); err != nil {
		return nil, err
	}
	if err := s.payments.Save(ctx, payment); err != nil {
		return nil, err
	}

	return payment, nil
}

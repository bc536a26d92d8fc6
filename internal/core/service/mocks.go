package service

import (
	"context"
	"time"

	"github.com/DanielPopoola/payments-core/internal/core/domain"
	"github.com/DanielPopoola/payments-core/internal/core/ports"
	"github.com/google/uuid"
)

// Test doubles used for fault injection. Each wraps a real implementation
// and diverts only the calls a test overrides.

type stubPaymentRepository struct {
	delegate ports.PaymentRepository

	CreateFn func(ctx context.Context, payment *domain.Payment) error
	GetFn    func(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	SaveFn   func(ctx context.Context, payment *domain.Payment) error
}

func (s *stubPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, payment)
	}
	return s.delegate.Create(ctx, payment)
}

func (s *stubPaymentRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, id)
	}
	return s.delegate.Get(ctx, id)
}

func (s *stubPaymentRepository) Save(ctx context.Context, payment *domain.Payment) error {
	if s.SaveFn != nil {
		return s.SaveFn(ctx, payment)
	}
	return s.delegate.Save(ctx, payment)
}

type stubCaptureRepository struct {
	delegate ports.CaptureRepository

	FindFn   func(ctx context.Context, paymentID uuid.UUID, key domain.IdempotencyKey) (*domain.Capture, error)
	InsertFn func(ctx context.Context, capture *domain.Capture) error
}

func (s *stubCaptureRepository) FindByIdempotencyKey(ctx context.Context, paymentID uuid.UUID, key domain.IdempotencyKey) (*domain.Capture, error) {
	if s.FindFn != nil {
		return s.FindFn(ctx, paymentID, key)
	}
	return s.delegate.FindByIdempotencyKey(ctx, paymentID, key)
}

func (s *stubCaptureRepository) Insert(ctx context.Context, capture *domain.Capture) error {
	if s.InsertFn != nil {
		return s.InsertFn(ctx, capture)
	}
	return s.delegate.Insert(ctx, capture)
}

type stubAtomicStore struct {
	delegate ports.AtomicStore

	WithFn func(ctx context.Context, paymentID uuid.UUID, fn func(ctx context.Context, payments ports.PaymentRepository, captures ports.CaptureRepository) error) error
}

func (s *stubAtomicStore) WithPaymentAndCapture(
	ctx context.Context,
	paymentID uuid.UUID,
	fn func(ctx context.Context, payments ports.PaymentRepository, captures ports.CaptureRepository) error,
) error {
	if s.WithFn != nil {
		return s.WithFn(ctx, paymentID, fn)
	}
	return s.delegate.WithPaymentAndCapture(ctx, paymentID, fn)
}

type stubClock struct {
	NowFn func(ctx context.Context) (time.Time, error)
}

func (s *stubClock) Now(ctx context.Context) (time.Time, error) {
	return s.NowFn(ctx)
}

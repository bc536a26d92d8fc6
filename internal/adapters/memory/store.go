// Package memory provides the in-process reference implementation of the
// persistence ports: maps guarded by a mutex, optimistic versions, and a
// staged transaction so the combined payment/capture write commits as one
// unit.
package memory

import (
	"context"
	"sync"

	"github.com/DanielPopoola/payments-core/internal/core/domain"
	"github.com/DanielPopoola/payments-core/internal/core/ports"
	"github.com/google/uuid"
)

type captureKey struct {
	paymentID uuid.UUID
	key       domain.IdempotencyKey
}

// Store holds payments and captures in memory. It satisfies
// ports.PaymentRepository, ports.CaptureRepository and ports.AtomicStore.
// Reads and writes hand out clones so callers cannot mutate stored state
// without going through Save/Insert.
type Store struct {
	mu       sync.RWMutex
	payments map[uuid.UUID]*domain.Payment
	captures map[captureKey]*domain.Capture
}

func NewStore() *Store {
	return &Store{
		payments: make(map[uuid.UUID]*domain.Payment),
		captures: make(map[captureKey]*domain.Capture),
	}
}

func (s *Store) Create(ctx context.Context, payment *domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(payment)
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(id)
}

func (s *Store) Save(ctx context.Context, payment *domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkVersionLocked(payment); err != nil {
		return err
	}
	s.applyPaymentLocked(payment)
	return nil
}

func (s *Store) FindByIdempotencyKey(ctx context.Context, paymentID uuid.UUID, key domain.IdempotencyKey) (*domain.Capture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	capture, ok := s.captures[captureKey{paymentID: paymentID, key: key}]
	if !ok {
		return nil, nil
	}
	return capture.Clone(), nil
}

func (s *Store) Insert(ctx context.Context, capture *domain.Capture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUniqueLocked(capture); err != nil {
		return err
	}
	s.applyCaptureLocked(capture)
	return nil
}

// WithPaymentAndCapture runs fn under the store mutex against a staged
// transaction: writes are validated immediately but buffered, and applied
// only if fn returns nil. An error from fn discards everything.
func (s *Store) WithPaymentAndCapture(
	ctx context.Context,
	paymentID uuid.UUID,
	fn func(ctx context.Context, payments ports.PaymentRepository, captures ports.CaptureRepository) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &storeTx{store: s}
	if err := fn(ctx, tx, tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (s *Store) createLocked(payment *domain.Payment) error {
	if _, ok := s.payments[payment.ID]; ok {
		return domain.NewVersionConflictError(payment.ID.String())
	}
	payment.Version = 1
	s.payments[payment.ID] = payment.Clone()
	return nil
}

func (s *Store) getLocked(id uuid.UUID) (*domain.Payment, error) {
	payment, ok := s.payments[id]
	if !ok {
		return nil, domain.NewPaymentNotFoundError(id.String())
	}
	return payment.Clone(), nil
}

func (s *Store) checkVersionLocked(payment *domain.Payment) error {
	stored, ok := s.payments[payment.ID]
	if !ok {
		return domain.NewPaymentNotFoundError(payment.ID.String())
	}
	if stored.Version != payment.Version {
		return domain.NewVersionConflictError(payment.ID.String())
	}
	return nil
}

func (s *Store) applyPaymentLocked(payment *domain.Payment) {
	payment.Version++
	s.payments[payment.ID] = payment.Clone()
}

func (s *Store) checkUniqueLocked(capture *domain.Capture) error {
	k := captureKey{paymentID: capture.PaymentID, key: capture.IdempotencyKey}
	if _, ok := s.captures[k]; ok {
		return domain.NewDuplicateCaptureError(capture.PaymentID.String(), capture.IdempotencyKey)
	}
	return nil
}

func (s *Store) applyCaptureLocked(capture *domain.Capture) {
	k := captureKey{paymentID: capture.PaymentID, key: capture.IdempotencyKey}
	s.captures[k] = capture.Clone()
}

// storeTx stages writes while the store mutex is held. Validation happens at
// write time (the mutex guarantees nothing moves underneath); commit applies
// the buffered writes.
type storeTx struct {
	store    *Store
	payments []*domain.Payment
	captures []*domain.Capture
}

func (tx *storeTx) Create(ctx context.Context, payment *domain.Payment) error {
	return tx.store.createLocked(payment)
}

func (tx *storeTx) Get(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	return tx.store.getLocked(id)
}

func (tx *storeTx) Save(ctx context.Context, payment *domain.Payment) error {
	if err := tx.store.checkVersionLocked(payment); err != nil {
		return err
	}
	tx.payments = append(tx.payments, payment)
	return nil
}

func (tx *storeTx) FindByIdempotencyKey(ctx context.Context, paymentID uuid.UUID, key domain.IdempotencyKey) (*domain.Capture, error) {
	capture, ok := tx.store.captures[captureKey{paymentID: paymentID, key: key}]
	if !ok {
		return nil, nil
	}
	return capture.Clone(), nil
}

func (tx *storeTx) Insert(ctx context.Context, capture *domain.Capture) error {
	if err := tx.store.checkUniqueLocked(capture); err != nil {
		return err
	}
	tx.captures = append(tx.captures, capture)
	return nil
}

func (tx *storeTx) commit() {
	for _, p := range tx.payments {
		tx.store.applyPaymentLocked(p)
	}
	for _, c := range tx.captures {
		tx.store.applyCaptureLocked(c)
	}
}

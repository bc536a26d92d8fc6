// Package domain defines the domain models for the payments core.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the current state of a payment in its lifecycle
type PaymentStatus string

const (
	StatusPending    PaymentStatus = "PENDING"
	StatusAuthorized PaymentStatus = "AUTHORIZED"
	StatusCaptured   PaymentStatus = "CAPTURED"
	StatusFailed     PaymentStatus = "FAILED"
)

// PaymentEvent is an input to the payment state machine.
type PaymentEvent string

const (
	EventAuthorize      PaymentEvent = "authorize"
	EventCaptureSuccess PaymentEvent = "capture_success"
	EventCaptureTimeout PaymentEvent = "capture_timeout"
)

// Transition is the pure state machine: given the current status and an
// event it returns the next status, or an INVALID_TRANSITION error carrying
// the attempted (from, event) pair. Time-window guards live on the entity
// (CanCapture); this table only encodes reachability.
//
// Valid transitions are:
//   - Pending → Authorized (authorize)
//   - Authorized → Captured (capture_success)
//   - Authorized → Failed (capture_timeout)
//
// Captured and Failed are terminal.
func Transition(from PaymentStatus, event PaymentEvent) (PaymentStatus, error) {
	switch from {
	case StatusPending:
		if event == EventAuthorize {
			return StatusAuthorized, nil
		}

	case StatusAuthorized:
		switch event {
		case EventCaptureSuccess:
			return StatusCaptured, nil
		case EventCaptureTimeout:
			return StatusFailed, nil
		}
	}
	return from, NewInvalidTransitionError(from, event)
}

// Payment represents one payment's authoritative lifecycle record
type Payment struct {
	ID     uuid.UUID
	Status PaymentStatus

	AuthorizedAt        *time.Time
	CaptureExpiresAt    *time.Time
	CapturedAt          *time.Time
	CapturedAmountCents *int64

	// Version is the optimistic concurrency token. Stores reject a Save
	// whose version does not match the stored row.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPayment creates a payment in the PENDING state.
func NewPayment(now time.Time) *Payment {
	return &Payment{
		ID:        uuid.New(),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case StatusCaptured, StatusFailed:
		return true
	default:
		return false
	}
}

// Authorize moves the payment to AUTHORIZED and opens the capture window.
// authorized_at and capture_expires_at are set exactly once, together.
func (p *Payment) Authorize(now time.Time, captureWindow time.Duration) error {
	next, err := Transition(p.Status, EventAuthorize)
	if err != nil {
		return err
	}

	expiresAt := now.Add(captureWindow)
	p.Status = next
	p.AuthorizedAt = &now
	p.CaptureExpiresAt = &expiresAt
	p.UpdatedAt = now
	return nil
}

// CanCapture reports whether a capture at the given instant is permitted.
// The window check is strictly-before: now == capture_expires_at counts as
// expired.
func (p *Payment) CanCapture(now time.Time) bool {
	if p.Status != StatusAuthorized {
		return false
	}
	if p.CaptureExpiresAt == nil {
		return false
	}
	return now.Before(*p.CaptureExpiresAt)
}

// Capture moves the payment to CAPTURED, recording the capture instant and
// amount. Callers check CanCapture first; this method only enforces
// reachability so the orchestrator can surface the window violation as a
// rejection rather than a transition error.
func (p *Payment) Capture(now time.Time, amountCents int64) error {
	next, err := Transition(p.Status, EventCaptureSuccess)
	if err != nil {
		return err
	}

	p.Status = next
	p.CapturedAt = &now
	p.CapturedAmountCents = &amountCents
	p.UpdatedAt = now
	return nil
}

// Fail moves the payment to FAILED after its capture window has lapsed.
func (p *Payment) Fail(now time.Time) error {
	next, err := Transition(p.Status, EventCaptureTimeout)
	if err != nil {
		return err
	}

	p.Status = next
	p.UpdatedAt = now
	return nil
}

// Clone returns an independent copy. Stores hand out clones so callers
// cannot mutate persisted state without going through Save.
func (p *Payment) Clone() *Payment {
	cp := *p
	cp.AuthorizedAt = cloneTime(p.AuthorizedAt)
	cp.CaptureExpiresAt = cloneTime(p.CaptureExpiresAt)
	cp.CapturedAt = cloneTime(p.CapturedAt)
	if p.CapturedAmountCents != nil {
		amount := *p.CapturedAmountCents
		cp.CapturedAmountCents = &amount
	}
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

package domain

import (
	"testing"
	"time"
)

func TestTransition_Table(t *testing.T) {
	tests := []struct {
		name    string
		from    PaymentStatus
		event   PaymentEvent
		want    PaymentStatus
		wantErr bool
	}{
		{"pending authorize", StatusPending, EventAuthorize, StatusAuthorized, false},
		{"authorized capture", StatusAuthorized, EventCaptureSuccess, StatusCaptured, false},
		{"authorized timeout", StatusAuthorized, EventCaptureTimeout, StatusFailed, false},
		{"pending capture", StatusPending, EventCaptureSuccess, "", true},
		{"pending timeout", StatusPending, EventCaptureTimeout, "", true},
		{"authorized authorize", StatusAuthorized, EventAuthorize, "", true},
		{"captured authorize", StatusCaptured, EventAuthorize, "", true},
		{"captured capture", StatusCaptured, EventCaptureSuccess, "", true},
		{"captured timeout", StatusCaptured, EventCaptureTimeout, "", true},
		{"failed authorize", StatusFailed, EventAuthorize, "", true},
		{"failed capture", StatusFailed, EventCaptureSuccess, "", true},
		{"failed timeout", StatusFailed, EventCaptureTimeout, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := Transition(tt.from, tt.event)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for (%s, %s), got next=%s", tt.from, tt.event, next)
				}
				if !IsErrorCode(err, ErrCodeInvalidTransition) {
					t.Errorf("expected INVALID_TRANSITION, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if next != tt.want {
				t.Errorf("expected %s, got %s", tt.want, next)
			}
		})
	}
}

func TestPayment_Authorize(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := NewPayment(now)

	if err := p.Authorize(now, 300*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.Status != StatusAuthorized {
		t.Errorf("expected AUTHORIZED, got %s", p.Status)
	}
	if p.AuthorizedAt == nil || !p.AuthorizedAt.Equal(now) {
		t.Error("expected authorized_at set to now")
	}
	if p.CaptureExpiresAt == nil || !p.CaptureExpiresAt.Equal(now.Add(300*time.Second)) {
		t.Error("expected capture_expires_at set to now+window")
	}

	if err := p.Authorize(now, 300*time.Second); err == nil {
		t.Error("expected second authorize to fail")
	}
}

func TestPayment_CanCapture_StrictBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := NewPayment(now)
	if err := p.Authorize(now, 300*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expiry := *p.CaptureExpiresAt

	if !p.CanCapture(expiry.Add(-time.Nanosecond)) {
		t.Error("expected capture allowed strictly before expiry")
	}
	if p.CanCapture(expiry) {
		t.Error("expected capture rejected exactly at expiry")
	}
	if p.CanCapture(expiry.Add(time.Second)) {
		t.Error("expected capture rejected after expiry")
	}
}

func TestPayment_CanCapture_WrongState(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := NewPayment(now)

	if p.CanCapture(now) {
		t.Error("pending payment must not be capturable")
	}

	if err := p.Authorize(now, time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Capture(now, 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.CanCapture(now) {
		t.Error("captured payment must not be capturable")
	}
}

func TestPayment_Capture(t *testing.T) {
	authorizedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	capturedAt := authorizedAt.Add(100 * time.Second)

	p := NewPayment(authorizedAt)
	if err := p.Authorize(authorizedAt, 300*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Capture(capturedAt, 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.Status != StatusCaptured {
		t.Errorf("expected CAPTURED, got %s", p.Status)
	}
	if p.CapturedAt == nil || !p.CapturedAt.Equal(capturedAt) {
		t.Error("expected captured_at set")
	}
	if p.CapturedAmountCents == nil || *p.CapturedAmountCents != 500 {
		t.Error("expected captured_amount_cents set")
	}
	if !p.IsTerminal() {
		t.Error("captured payment must be terminal")
	}
}

func TestPayment_Fail(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := NewPayment(now)
	if err := p.Authorize(now, 10*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := p.Fail(now.Add(11 * time.Second)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != StatusFailed {
		t.Errorf("expected FAILED, got %s", p.Status)
	}
	if !p.IsTerminal() {
		t.Error("failed payment must be terminal")
	}

	if err := p.Capture(now, 100); err == nil {
		t.Error("expected capture of failed payment to be rejected")
	}
}

func TestPayment_Clone_Independent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := NewPayment(now)
	if err := p.Authorize(now, time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cp := p.Clone()
	later := now.Add(time.Hour)
	cp.Status = StatusFailed
	*cp.AuthorizedAt = later

	if p.Status != StatusAuthorized {
		t.Error("clone mutation leaked into original status")
	}
	if !p.AuthorizedAt.Equal(now) {
		t.Error("clone mutation leaked into original authorized_at")
	}
}

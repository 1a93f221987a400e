package outbox

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2025, 11, 9, 14, 0, 0, 0, time.UTC)

// TestNewEntry tests the initial failed state.
func TestNewEntry(t *testing.T) {
	e := NewEntry("id-1", " telegram ", "hello", errors.New("502"), t0)
	if e.Status != StatusFailed || e.Attempts != 1 || e.Channel != "telegram" || e.ErrorMessage != "502" {
		t.Errorf("unexpected entry %+v", e)
	}
	if err := e.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

// TestEntry_Validate tests required fields.
func TestEntry_Validate(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  error
	}{
		{"missing channel", Entry{Text: "x", CreatedAt: t0}, ErrEmptyChannel},
		{"blank text", Entry{Channel: "email", Text: "  ", CreatedAt: t0}, ErrEmptyText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.entry.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// TestEntry_Resend tests failed and successful resends.
func TestEntry_Resend(t *testing.T) {
	e := NewEntry("id-1", "telegram", "hello", errors.New("down"), t0)

	if err := e.BeginResend(t0.Add(time.Minute)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e.MarkFailed(errors.New("still down"))
	if e.Status != StatusFailed || e.Attempts != 2 || e.ErrorMessage != "still down" || e.IsResolved() {
		t.Fatalf("expected open failure after 2 attempts, got %+v", e)
	}

	if err := e.BeginResend(t0.Add(2 * time.Minute)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e.MarkSuccess()
	if e.Status != StatusDone || e.ErrorMessage != "" || !e.IsResolved() {
		t.Errorf("expected done, got %+v", e)
	}
	if !e.LastAttemptedAt.Equal(t0.Add(2 * time.Minute)) {
		t.Errorf("unexpected last attempt %v", e.LastAttemptedAt)
	}
}

// TestEntry_Resolved tests that resolved entries refuse further changes.
func TestEntry_Resolved(t *testing.T) {
	done := NewEntry("id-1", "telegram", "hello", nil, t0)
	done.MarkSuccess()
	if err := done.BeginResend(t0); !errors.Is(err, ErrResolved) || done.Attempts != 1 {
		t.Errorf("expected ErrResolved without an attempt, got %v (%d)", err, done.Attempts)
	}
	if err := done.MarkAbandoned(); !errors.Is(err, ErrResolved) {
		t.Errorf("expected ErrResolved on dismiss, got %v", err)
	}

	dismissed := NewEntry("id-2", "telegram", "hello", nil, t0)
	if err := dismissed.MarkAbandoned(); err != nil || dismissed.Status != StatusAbandoned {
		t.Fatalf("expected abandoned, got %+v (%v)", dismissed, err)
	}
	if err := dismissed.BeginResend(t0); !errors.Is(err, ErrResolved) {
		t.Errorf("expected ErrResolved, got %v", err)
	}
}

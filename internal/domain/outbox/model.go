// Package outbox models messages that could not be delivered on a channel.
// Entries wait for an organizer to resend or dismiss them; nothing is
// resent automatically.
package outbox

import (
	"errors"
	"strings"
	"time"
)

// Status values.
const (
	StatusFailed    = "failed"    // last attempt failed; resend allowed
	StatusDone      = "done"      // a resend succeeded
	StatusAbandoned = "abandoned" // dismissed by an organizer
)

// Statuses lists every status in display order.
var Statuses = []string{StatusFailed, StatusDone, StatusAbandoned}

// Domain errors.
var (
	ErrEmptyChannel  = errors.New("channel is required")
	ErrEmptyText     = errors.New("message text is required")
	ErrResolved      = errors.New("delivery was already resent or dismissed")
	ErrEntryNotFound = errors.New("delivery not found")
)

// Entry is one message that failed on one channel.
type Entry struct {
	ID              string
	Channel         string // notifier name, e.g. "telegram"
	Text            string // message exactly as first attempted
	Status          string
	Attempts        int
	LastAttemptedAt time.Time
	CreatedAt       time.Time
	ErrorMessage    string // last delivery error
}

// NewEntry records text after its first failed send on channel.
// PRE: id is unique
// POST: Entry is failed with one attempt recorded
func NewEntry(id, channel, text string, cause error, now time.Time) Entry {
	e := Entry{
		ID:              id,
		Channel:         strings.TrimSpace(channel),
		Text:            text,
		Status:          StatusFailed,
		Attempts:        1,
		LastAttemptedAt: now,
		CreatedAt:       now,
	}
	if cause != nil {
		e.ErrorMessage = cause.Error()
	}
	return e
}

// Validate checks that the Entry has valid data.
func (e Entry) Validate() error {
	if e.Channel == "" {
		return ErrEmptyChannel
	}
	if strings.TrimSpace(e.Text) == "" {
		return ErrEmptyText
	}
	if e.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	return nil
}

// IsResolved reports whether the entry was resent or dismissed.
func (e Entry) IsResolved() bool {
	return e.Status == StatusDone || e.Status == StatusAbandoned
}

// BeginResend records a resend attempt at now.
// PRE: none
// POST: Attempts incremented, or ErrResolved with e unchanged
func (e *Entry) BeginResend(now time.Time) error {
	if e.IsResolved() {
		return ErrResolved
	}
	e.Attempts++
	e.LastAttemptedAt = now
	return nil
}

// MarkSuccess marks the entry as delivered.
func (e *Entry) MarkSuccess() {
	e.Status = StatusDone
	e.ErrorMessage = ""
}

// MarkFailed records the resend error. The entry stays open.
func (e *Entry) MarkFailed(err error) {
	e.Status = StatusFailed
	e.ErrorMessage = err.Error()
}

// MarkAbandoned dismisses the entry.
// PRE: none
// POST: Status abandoned, or ErrResolved for an entry already resolved
func (e *Entry) MarkAbandoned() error {
	if e.IsResolved() {
		return ErrResolved
	}
	e.Status = StatusAbandoned
	return nil
}

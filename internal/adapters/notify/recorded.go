package notify

import (
	"context"
	"fmt"
	"log/slog"
)

// FailureLog keeps a message that could not be delivered on a channel.
type FailureLog interface {
	Record(ctx context.Context, channel, text string, cause error) error
}

// Recorded hands failed sends on one named channel to a FailureLog so an
// organizer can resend them later. The send error is still returned.
type Recorded struct {
	name string
	next Notifier
	log  FailureLog
}

// Compile-time check.
var _ Notifier = (*Recorded)(nil)

// NewRecorded wraps next. name must match the channel used for resends.
func NewRecorded(name string, next Notifier, log FailureLog) *Recorded {
	return &Recorded{name: name, next: next, log: log}
}

// Notify implements Notifier.
func (r *Recorded) Notify(ctx context.Context, text string) error {
	err := r.next.Notify(ctx, text)
	if err == nil {
		return nil
	}
	// The triggering request may already be gone; the record must still be written.
	if lerr := r.log.Record(context.WithoutCancel(ctx), r.name, text, err); lerr != nil {
		slog.Error("notify_event", "event", "record_failed", "channel", r.name, "error", lerr)
		return err
	}
	return fmt.Errorf("%s: recorded for resend: %w", r.name, err)
}

package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	outboxStore "squashledger/internal/adapters/storage/outbox"
	domain "squashledger/internal/domain/outbox"
)

// DeliveryLog records failed channel sends in the outbox.
type DeliveryLog struct {
	Store outboxStore.Store
	NewID func() string
	Now   func() time.Time
}

// NewDeliveryLog creates a log with random IDs and the wall clock.
func NewDeliveryLog(store outboxStore.Store) *DeliveryLog {
	return &DeliveryLog{Store: store, NewID: uuid.NewString, Now: time.Now}
}

// Record persists text so an organizer can resend it on channel.
// PRE: channel and text are non-empty
// POST: a failed entry is stored
func (l *DeliveryLog) Record(ctx context.Context, channel, text string, cause error) error {
	e := domain.NewEntry(l.NewID(), channel, text, cause, l.Now())
	if err := e.Validate(); err != nil {
		return err
	}
	if err := l.Store.Save(ctx, e); err != nil {
		return fmt.Errorf("record failed delivery: %w", err)
	}
	slog.Info("outbox_event", "event", "recorded", "entry_id", e.ID, "channel", channel)
	return nil
}

// ResendDeliveryDeps holds dependencies for organizer actions on failed deliveries.
type ResendDeliveryDeps struct {
	Store    outboxStore.Store
	Channels map[string]Notifier // by the name used when recording
	Now      func() time.Time
}

func (d ResendDeliveryDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// ExecuteResendDelivery sends a failed message once more on its channel.
// A failed resend is saved on the entry and is not an error.
// PRE: id is non-empty
// POST: entry saved as done or failed, or domain.ErrResolved / ErrEntryNotFound
func ExecuteResendDelivery(ctx context.Context, id string, deps ResendDeliveryDeps) (domain.Entry, error) {
	entry, err := deps.Store.GetByID(ctx, id)
	if err != nil {
		return domain.Entry{}, err
	}
	if err := entry.BeginResend(deps.now()); err != nil {
		return entry, err
	}

	if ch, ok := deps.Channels[entry.Channel]; !ok {
		entry.MarkFailed(fmt.Errorf("no channel named %q is configured", entry.Channel))
		slog.Warn("outbox_event", "event", "unknown_channel", "entry_id", entry.ID, "channel", entry.Channel)
	} else if err := ch.Notify(ctx, entry.Text); err != nil {
		entry.MarkFailed(err)
		slog.Warn("outbox_event", "event", "resend_failed", "entry_id", entry.ID, "channel", entry.Channel, "attempt", entry.Attempts, "error", err)
	} else {
		entry.MarkSuccess()
		slog.Info("outbox_event", "event", "resent", "entry_id", entry.ID, "channel", entry.Channel, "attempt", entry.Attempts)
	}

	if err := deps.Store.Save(ctx, entry); err != nil {
		return entry, fmt.Errorf("save delivery: %w", err)
	}
	return entry, nil
}

// ExecuteDismissDelivery closes a failed delivery without sending it.
// PRE: id is non-empty
// POST: entry saved as abandoned, or domain.ErrResolved
func ExecuteDismissDelivery(ctx context.Context, id string, deps ResendDeliveryDeps) (domain.Entry, error) {
	entry, err := deps.Store.GetByID(ctx, id)
	if err != nil {
		return domain.Entry{}, err
	}
	if err := entry.MarkAbandoned(); err != nil {
		return entry, err
	}
	if err := deps.Store.Save(ctx, entry); err != nil {
		return entry, fmt.Errorf("save delivery: %w", err)
	}
	slog.Info("outbox_event", "event", "dismissed", "entry_id", entry.ID, "channel", entry.Channel)
	return entry, nil
}

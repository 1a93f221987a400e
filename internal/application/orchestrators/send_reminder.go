package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"squashledger/internal/domain/ledger"
	"squashledger/internal/domain/reminder"
	"squashledger/internal/domain/summary"
)

// ReminderName keys the pre-session reminder in the state store.
const ReminderName = "pre_session"

// ReminderStateStore persists the last send date of a reminder.
type ReminderStateStore interface {
	LastSent(ctx context.Context, name string, loc *time.Location) (time.Time, error)
	SetLastSent(ctx context.Context, name string, sent time.Time) error
}

// SendReminderDeps holds dependencies for SendReminder.
type SendReminderDeps struct {
	View     LedgerReader
	Notifier Notifier
	State    ReminderStateStore
	Window   reminder.Window
	Rules    ledger.Rules
	Format   summary.Format
	Location *time.Location // nil means UTC
	Now      func() time.Time
}

// SendReminderResult reports what the reminder check did.
type SendReminderResult struct {
	Fired      bool
	Delivered  bool
	Occurrence time.Time
}

// ExecuteSendReminder posts the upcoming occurrence's summary once per day
// while the reminder window is open.
// The day is recorded before sending, so a failed send is not retried that day.
// PRE: Window valid; Notifier and State configured
// POST: At most one reminder per calendar date in Location
func ExecuteSendReminder(ctx context.Context, deps SendReminderDeps) (SendReminderResult, error) {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	now := deps.Now().In(loc)

	last, err := deps.State.LastSent(ctx, ReminderName, loc)
	if err != nil {
		return SendReminderResult{}, fmt.Errorf("read reminder state: %w", err)
	}
	if !deps.Window.ShouldFire(now, last) {
		return SendReminderResult{}, nil
	}

	records, err := deps.View.Get(ctx)
	if err != nil {
		return SendReminderResult{}, err
	}
	occurrence := ledger.NextOccurrences(now, deps.Rules.Weekday, 1)[0]

	if err := deps.State.SetLastSent(ctx, ReminderName, now); err != nil {
		return SendReminderResult{}, fmt.Errorf("record reminder state: %w", err)
	}

	text := "Reminder: squash on " + occurrence.Format("Monday 2 Jan") + ". Add your name if you're coming.\n\n" +
		summary.Render(summary.Build(records, occurrence), deps.Format)
	result := SendReminderResult{Fired: true, Occurrence: occurrence}
	if err := deps.Notifier.Notify(ctx, text); err != nil {
		slog.Warn("reminder_event", "event", "reminder_send_failed", "occurrence", ledger.FormatDate(occurrence), "error", err)
		return result, nil
	}
	result.Delivered = true
	slog.Info("reminder_event", "event", "reminder_sent", "occurrence", ledger.FormatDate(occurrence))
	return result, nil
}

// ReminderSchedulerConfig holds configuration for the reminder scheduler.
type ReminderSchedulerConfig struct {
	Interval time.Duration // how often the window is checked
	Enabled  bool
}

// DefaultReminderSchedulerConfig checks every five minutes.
func DefaultReminderSchedulerConfig() ReminderSchedulerConfig {
	return ReminderSchedulerConfig{Interval: 5 * time.Minute, Enabled: true}
}

// StartReminderScheduler starts a background goroutine that periodically runs the reminder check.
// PRE: Context is valid, deps are initialized
// POST: Goroutine started, returns cancel function
func StartReminderScheduler(ctx context.Context, deps SendReminderDeps, cfg ReminderSchedulerConfig) func() {
	if !cfg.Enabled || cfg.Interval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := ExecuteSendReminder(ctx, deps); err != nil {
					slog.Error("reminder_scheduler_error", "error", err)
				}
			}
		}
	}()

	return cancel
}

package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"squashledger/internal/adapters/http/perf"
)

// DefaultTimeout bounds a single notification send.
const DefaultTimeout = 10 * time.Second

// Notifier delivers a plain-text message to the group.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Noop discards messages. It is used when no notification channel is configured.
type Noop struct{}

// Notify implements Notifier.
func (Noop) Notify(_ context.Context, text string) error {
	slog.Debug("notify_event", "event", "noop_notify", "chars", len(text))
	return nil
}

// Multi fans a message out to every notifier. All are attempted; the
// returned error joins each failure.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, text string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Timed bounds each send with a timeout and records it to a collector.
type Timed struct {
	name      string
	next      Notifier
	timeout   time.Duration
	collector *perf.Collector
}

// NewTimed wraps next. A nil collector only applies the timeout.
// PRE: next is non-nil
// POST: Every Notify returns within timeout plus the time next takes to honor cancellation
func NewTimed(name string, next Notifier, timeout time.Duration, collector *perf.Collector) *Timed {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Timed{name: name, next: next, timeout: timeout, collector: collector}
}

// Name returns the channel name the send is recorded under.
func (t *Timed) Name() string { return t.name }

// Notify implements Notifier.
func (t *Timed) Notify(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	err := t.next.Notify(ctx, text)
	elapsed := time.Since(start)

	if t.collector != nil {
		t.collector.Record(perf.Entry{
			Kind:       perf.KindNotify,
			Path:       "notify." + t.name,
			DurationMs: float64(elapsed.Microseconds()) / 1000.0,
			Failed:     err != nil,
			Timestamp:  start,
		})
	}
	return err
}

// BestEffort logs delivery failures instead of returning them, so a broken
// channel never fails the operation that triggered the message.
type BestEffort struct {
	next Notifier
}

// NewBestEffort wraps next.
func NewBestEffort(next Notifier) *BestEffort {
	return &BestEffort{next: next}
}

// Notify implements Notifier. It always returns nil.
func (b *BestEffort) Notify(ctx context.Context, text string) error {
	if err := b.next.Notify(ctx, text); err != nil {
		slog.Warn("notify_event", "event", "notify_failed", "error", err)
	}
	return nil
}

// Compile-time checks.
var (
	_ Notifier = Noop{}
	_ Notifier = Multi(nil)
	_ Notifier = (*Timed)(nil)
	_ Notifier = (*BestEffort)(nil)
)

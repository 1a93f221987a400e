package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"squashledger/internal/domain/ledger"
	"squashledger/internal/domain/summary"
)

// ErrNoNotifier is returned when a send is requested but no notifier is configured.
var ErrNoNotifier = errors.New("no notifier configured")

// LedgerReader reads the current ledger through the cache.
type LedgerReader interface {
	Get(ctx context.Context) ([]ledger.Record, error)
}

// SendSummaryInput carries input for the send summary orchestrator.
type SendSummaryInput struct {
	Date time.Time
}

// SendSummaryDeps holds dependencies for SendSummary.
type SendSummaryDeps struct {
	View     LedgerReader
	Notifier Notifier
	Format   summary.Format
}

// SendSummaryResult carries the rendered message and whether it was delivered.
type SendSummaryResult struct {
	Text      string
	Delivered bool
}

// ExecuteSendSummary renders the occurrence summary and posts it to the group.
// A delivery failure is logged and reported as Delivered=false, not as an error.
// PRE: Date non-zero; Notifier configured
// POST: Text holds the rendered summary; one notify attempt was made
func ExecuteSendSummary(ctx context.Context, input SendSummaryInput, deps SendSummaryDeps) (SendSummaryResult, error) {
	if input.Date.IsZero() {
		return SendSummaryResult{}, ledger.ErrMissingDate
	}
	if deps.Notifier == nil {
		return SendSummaryResult{}, ErrNoNotifier
	}

	records, err := deps.View.Get(ctx)
	if err != nil {
		return SendSummaryResult{}, err
	}
	text := summary.Render(summary.Build(records, input.Date), deps.Format)

	if err := deps.Notifier.Notify(ctx, text); err != nil {
		slog.Warn("summary_event", "event", "summary_send_failed", "date", ledger.FormatDate(input.Date), "error", err)
		return SendSummaryResult{Text: text}, nil
	}
	slog.Info("summary_event", "event", "summary_sent", "date", ledger.FormatDate(input.Date))
	return SendSummaryResult{Text: text, Delivered: true}, nil
}

package orchestrators

import (
	"context"
	"log/slog"
	"sort"
	"time"

	storage "squashledger/internal/adapters/storage/ledger"
	"squashledger/internal/domain/ledger"
	"squashledger/internal/domain/summary"
)

// LedgerRowStore is the write side of the row store used by ledger orchestrators.
type LedgerRowStore interface {
	Append(ctx context.Context, row []string) error
	UpdateCells(ctx context.Context, updates []storage.CellUpdate) error
	DeleteRows(ctx context.Context, rows []ledger.RowHandle) error
}

// LedgerView is the cached read side of the ledger.
type LedgerView interface {
	Get(ctx context.Context) ([]ledger.Record, error)
	Fresh(ctx context.Context) ([]ledger.Record, error)
	Invalidate(ctx context.Context)
}

// Notifier delivers a rendered message.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// LedgerDeps holds dependencies shared by the ledger mutation orchestrators.
type LedgerDeps struct {
	Store    LedgerRowStore
	View     LedgerView
	Rules    ledger.Rules
	Notifier Notifier // nil skips announcements
	Format   summary.Format
}

// appendRecord validates and appends one record, then invalidates the view.
func appendRecord(ctx context.Context, deps LedgerDeps, rec ledger.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := deps.Store.Append(ctx, rec.Row()); err != nil {
		return err
	}
	deps.View.Invalidate(ctx)
	return nil
}

// announce publishes the summary for each date. Failures are logged only;
// the mutation that triggered the announcement has already succeeded.
func announce(ctx context.Context, deps LedgerDeps, dates []time.Time, trigger string) {
	if deps.Notifier == nil || len(dates) == 0 {
		return
	}
	records, err := deps.View.Get(ctx)
	if err != nil {
		slog.Warn("ledger_event", "event", "announce_skipped", "trigger", trigger, "error", err)
		return
	}
	for _, d := range dates {
		text := summary.Render(summary.Build(records, d), deps.Format)
		if err := deps.Notifier.Notify(ctx, text); err != nil {
			slog.Warn("ledger_event", "event", "announce_failed", "trigger", trigger, "date", ledger.FormatDate(d), "error", err)
			continue
		}
		slog.Info("ledger_event", "event", "announced", "trigger", trigger, "date", ledger.FormatDate(d))
	}
}

// distinctDates returns the dated records' dates, ascending and de-duplicated.
func distinctDates(records []ledger.Record) []time.Time {
	seen := make(map[string]bool)
	var dates []time.Time
	for _, r := range records {
		if !r.HasDate() {
			continue
		}
		key := ledger.FormatDate(r.Date)
		if seen[key] {
			continue
		}
		seen[key] = true
		dates = append(dates, ledger.Day(r.Date))
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// checkSelection rejects empty selections and the header row, and returns
// the handles de-duplicated in first-seen order.
func checkSelection(handles []ledger.RowHandle) ([]ledger.RowHandle, error) {
	if len(handles) == 0 {
		return nil, ledger.ErrEmptySelection
	}
	seen := make(map[ledger.RowHandle]bool, len(handles))
	out := make([]ledger.RowHandle, 0, len(handles))
	for _, h := range handles {
		if h < ledger.FirstDataRow {
			return nil, ledger.ErrHeaderRowSelected
		}
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out, nil
}

package ledger

import (
	"context"
	"log/slog"
	"time"

	"squashledger/internal/adapters/http/perf"
	domain "squashledger/internal/domain/ledger"
)

// DefaultSlowCall is the default threshold for slow row store warnings.
const DefaultSlowCall = time.Second

// TimedStore wraps a Store to log slow round trips and record them to a collector.
// When Timeout is set, each call gets its own deadline on top of the caller's context.
type TimedStore struct {
	next      Store
	collector *perf.Collector
	threshold time.Duration

	Timeout time.Duration
}

// Compile-time check that *TimedStore satisfies Store.
var _ Store = (*TimedStore)(nil)

// NewTimedStore wraps next with timing instrumentation. A nil collector only logs.
// PRE: next is non-nil
// POST: Returns a Store that times every call
func NewTimedStore(next Store, collector *perf.Collector, threshold time.Duration) *TimedStore {
	if threshold <= 0 {
		threshold = DefaultSlowCall
	}
	return &TimedStore{next: next, collector: collector, threshold: threshold}
}

// bound applies Timeout to ctx.
func (t *TimedStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, t.Timeout)
}

func (t *TimedStore) observe(op string, start time.Time, err error) {
	elapsed := time.Since(start)
	durationMs := float64(elapsed.Microseconds()) / 1000.0

	switch {
	case err != nil:
		slog.Warn("store_call_failed", "op", op, "duration_ms", durationMs, "error", err)
	case elapsed >= t.threshold:
		slog.Warn("slow_store_call", "op", op, "duration_ms", durationMs)
	default:
		slog.Debug("store_call", "op", op, "duration_ms", durationMs)
	}

	if t.collector != nil {
		t.collector.Record(perf.Entry{
			Kind:       perf.KindStore,
			Path:       op,
			DurationMs: durationMs,
			Failed:     err != nil,
			Timestamp:  start,
		})
	}
}

// EnsureHeader implements Store.
func (t *TimedStore) EnsureHeader(ctx context.Context) (bool, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	start := time.Now()
	repaired, err := t.next.EnsureHeader(ctx)
	t.observe("store.EnsureHeader", start, err)
	return repaired, err
}

// FetchAll implements Store.
func (t *TimedStore) FetchAll(ctx context.Context) (Table, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	start := time.Now()
	table, err := t.next.FetchAll(ctx)
	t.observe("store.FetchAll", start, err)
	return table, err
}

// Append implements Store.
func (t *TimedStore) Append(ctx context.Context, row []string) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	start := time.Now()
	err := t.next.Append(ctx, row)
	t.observe("store.Append", start, err)
	return err
}

// UpdateCells implements Store.
func (t *TimedStore) UpdateCells(ctx context.Context, updates []CellUpdate) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	start := time.Now()
	err := t.next.UpdateCells(ctx, updates)
	t.observe("store.UpdateCells", start, err)
	return err
}

// DeleteRows implements Store.
func (t *TimedStore) DeleteRows(ctx context.Context, rows []domain.RowHandle) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	start := time.Now()
	err := t.next.DeleteRows(ctx, rows)
	t.observe("store.DeleteRows", start, err)
	return err
}

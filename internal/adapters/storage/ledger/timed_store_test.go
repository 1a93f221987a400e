package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"squashledger/internal/adapters/http/perf"
	domain "squashledger/internal/domain/ledger"
)

// TestTimedStore_RecordsCalls verifies each call is forwarded and recorded.
func TestTimedStore_RecordsCalls(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore(nil)
	collector := perf.NewCollector(100)
	s := NewTimedStore(mem, collector, time.Hour)

	if _, err := s.EnsureHeader(ctx); err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}
	if err := s.Append(ctx, personRow("Alice")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := s.FetchAll(ctx); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if err := s.DeleteRows(ctx, []domain.RowHandle{7}); !errors.Is(err, ErrRowOutOfRange) {
		t.Fatalf("DeleteRows err = %v, want ErrRowOutOfRange", err)
	}

	stats := mem.Stats()
	if stats.HeaderWrites != 1 || stats.Appends != 1 || stats.Fetches != 1 {
		t.Errorf("stats = %+v, want calls forwarded", stats)
	}

	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	if len(snap.SlowestStoreOps) != 4 {
		t.Fatalf("store ops = %d, want 4", len(snap.SlowestStoreOps))
	}
	for _, op := range snap.SlowestStoreOps {
		if op.Path == "store.DeleteRows" && op.Failures != 1 {
			t.Errorf("DeleteRows failures = %d, want 1", op.Failures)
		}
	}
}

// TestTimedStore_NilCollector verifies the wrapper works without a collector.
func TestTimedStore_NilCollector(t *testing.T) {
	s := NewTimedStore(NewMemoryStore(domain.Header()), nil, 0)
	if err := s.UpdateCells(context.Background(), nil); err != nil {
		t.Errorf("UpdateCells: %v", err)
	}
}

// deadlineProbe records whether the wrapped call saw a deadline.
type deadlineProbe struct {
	*MemoryStore
	hadDeadline bool
}

// FetchAll implements Store.
// PRE: none
// POST: records whether ctx carried a deadline
func (p *deadlineProbe) FetchAll(ctx context.Context) (Table, error) {
	_, p.hadDeadline = ctx.Deadline()
	return p.MemoryStore.FetchAll(ctx)
}

// TestTimedStore_Timeout verifies Timeout bounds each call.
func TestTimedStore_Timeout(t *testing.T) {
	probe := &deadlineProbe{MemoryStore: NewMemoryStore(domain.Header())}
	s := NewTimedStore(probe, nil, 0)

	if _, err := s.FetchAll(context.Background()); err != nil || probe.hadDeadline {
		t.Fatalf("expected no deadline without Timeout (err=%v)", err)
	}
	s.Timeout = 15 * time.Second
	if _, err := s.FetchAll(context.Background()); err != nil || !probe.hadDeadline {
		t.Fatalf("expected a deadline with Timeout (err=%v)", err)
	}
}

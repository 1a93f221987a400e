package orchestrators

import (
	"context"
	"sync"
	"testing"
	"time"

	storage "squashledger/internal/adapters/storage/ledger"
	"squashledger/internal/application/ledgerview"
	"squashledger/internal/domain/ledger"
	"squashledger/internal/domain/summary"
)

// Sundays in November 2025.
var (
	nov9  = time.Date(2025, 11, 9, 0, 0, 0, 0, time.UTC)
	nov16 = time.Date(2025, 11, 16, 0, 0, 0, 0, time.UTC)
	nov23 = time.Date(2025, 11, 23, 0, 0, 0, 0, time.UTC)
)

// recordingNotifier implements Notifier for testing.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

// Notify implements Notifier.
// PRE: none
// POST: text recorded; returns the configured error
func (n *recordingNotifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

// failingStore wraps a MemoryStore and fails selected writes.
type failingStore struct {
	*storage.MemoryStore
	appendErr error
	updateErr error
	deleteErr error
}

// Append implements LedgerRowStore.
// PRE: none
// POST: returns appendErr when set, otherwise delegates
func (s *failingStore) Append(ctx context.Context, row []string) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	return s.MemoryStore.Append(ctx, row)
}

// UpdateCells implements LedgerRowStore.
// PRE: none
// POST: returns updateErr when set, otherwise delegates
func (s *failingStore) UpdateCells(ctx context.Context, updates []storage.CellUpdate) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.MemoryStore.UpdateCells(ctx, updates)
}

// DeleteRows implements LedgerRowStore.
// PRE: none
// POST: returns deleteErr when set, otherwise delegates
func (s *failingStore) DeleteRows(ctx context.Context, rows []ledger.RowHandle) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.MemoryStore.DeleteRows(ctx, rows)
}

// newLedgerFixture builds deps over a MemoryStore seeded with rows.
func newLedgerFixture(rows ...[]string) (*storage.MemoryStore, LedgerDeps, *recordingNotifier) {
	store := storage.NewMemoryStore(ledger.Header(), rows...)
	notes := &recordingNotifier{}
	deps := LedgerDeps{
		Store:    store,
		View:     ledgerview.New(store, ledgerview.Config{}),
		Rules:    ledger.DefaultRules(),
		Notifier: notes,
		Format:   summary.DefaultFormat(),
	}
	return store, deps, notes
}

// storedRecords normalizes the store contents without going through the cache.
func storedRecords(store *storage.MemoryStore) []ledger.Record {
	snap := store.Snapshot()
	return ledger.Normalize(snap.Header, snap.Rows)
}

func attendanceRow(d time.Time, name string) []string {
	return ledger.NewAttendance(d, name).Row()
}

func TestCheckSelection(t *testing.T) {
	got, err := checkSelection([]ledger.RowHandle{4, 2, 4, 3, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []ledger.RowHandle{4, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
		}
	}

	if _, err := checkSelection(nil); err != ledger.ErrEmptySelection {
		t.Errorf("expected ErrEmptySelection, got %v", err)
	}
	if _, err := checkSelection([]ledger.RowHandle{3, 1}); err != ledger.ErrHeaderRowSelected {
		t.Errorf("expected ErrHeaderRowSelected, got %v", err)
	}
}

func TestDistinctDates(t *testing.T) {
	records := []ledger.Record{
		{Date: nov16}, {Date: nov9}, {}, {Date: nov16.Add(3 * time.Hour)},
	}
	got := distinctDates(records)
	if len(got) != 2 || !got[0].Equal(nov9) || !got[1].Equal(nov16) {
		t.Errorf("expected [nov9 nov16], got %v", got)
	}
}

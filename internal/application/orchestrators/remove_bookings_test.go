package orchestrators

import (
	"context"
	"errors"
	"testing"

	"squashledger/internal/domain/ledger"
)

func fivePlayers() [][]string {
	var rows [][]string
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		rows = append(rows, attendanceRow(nov9, name))
	}
	return rows
}

// TestExecuteRemoveBookings_DeletesExactlySelected tests positional deletion in any selection order.
func TestExecuteRemoveBookings_DeletesExactlySelected(t *testing.T) {
	tests := []struct {
		name    string
		handles []ledger.RowHandle
	}{
		{"ascending", []ledger.RowHandle{3, 5}},
		{"descending", []ledger.RowHandle{5, 3}},
		{"with duplicates", []ledger.RowHandle{3, 5, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, deps, _ := newLedgerFixture(fivePlayers()...)

			res, err := ExecuteRemoveBookings(context.Background(), RemoveBookingsInput{RowHandles: tt.handles}, deps)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var left []string
			for _, r := range storedRecords(store) {
				left = append(left, r.PlayerName)
			}
			if len(left) != 3 || left[0] != "A" || left[1] != "C" || left[2] != "E" {
				t.Errorf("expected [A C E], got %v", left)
			}
			if len(res.Removed) != 2 || res.Removed[0].PlayerName != "D" || res.Removed[1].PlayerName != "B" {
				t.Errorf("expected removed [D B], got %+v", res.Removed)
			}
			if store.Stats().Deletes != 1 {
				t.Errorf("expected one delete call, got %d", store.Stats().Deletes)
			}
		})
	}
}

// TestExecuteRemoveBookings_Validation tests selection checks before any delete.
func TestExecuteRemoveBookings_Validation(t *testing.T) {
	tests := []struct {
		name    string
		handles []ledger.RowHandle
	}{
		{"empty selection", nil},
		{"header row", []ledger.RowHandle{1, 2}},
		{"stale handle", []ledger.RowHandle{2, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, deps, _ := newLedgerFixture(fivePlayers()...)
			_, err := ExecuteRemoveBookings(context.Background(), RemoveBookingsInput{RowHandles: tt.handles}, deps)
			if !errors.Is(err, ledger.ErrInvalid) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if store.Stats().Deletes != 0 {
				t.Error("expected no delete")
			}
			if n := len(storedRecords(store)); n != 5 {
				t.Errorf("expected 5 rows, got %d", n)
			}
		})
	}
}

// TestExecuteRemoveBookings_StoreFailure tests that delete errors propagate.
func TestExecuteRemoveBookings_StoreFailure(t *testing.T) {
	mem, deps, notes := newLedgerFixture(fivePlayers()...)
	boom := errors.New("sheets unavailable")
	deps.Store = &failingStore{MemoryStore: mem, deleteErr: boom}

	if _, err := ExecuteRemoveBookings(context.Background(), RemoveBookingsInput{RowHandles: []ledger.RowHandle{2}}, deps); !errors.Is(err, boom) {
		t.Fatalf("expected delete error, got %v", err)
	}
	if notes.count() != 0 {
		t.Error("expected no announcement")
	}
}

// TestExecuteRemoveBookings_AnnouncesEachDate tests one announcement per affected occurrence.
func TestExecuteRemoveBookings_AnnouncesEachDate(t *testing.T) {
	_, deps, notes := newLedgerFixture(attendanceRow(nov9, "A"), attendanceRow(nov16, "B"), attendanceRow(nov16, "C"))

	if _, err := ExecuteRemoveBookings(context.Background(), RemoveBookingsInput{RowHandles: []ledger.RowHandle{2, 3, 4}}, deps); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notes.count() != 2 {
		t.Errorf("expected 2 announcements, got %d", notes.count())
	}
}

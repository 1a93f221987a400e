package ledger

import (
	"context"
	"errors"
	"testing"

	domain "squashledger/internal/domain/ledger"
)

func namesOf(rows [][]string) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		if len(r) > int(domain.ColPlayerName) {
			out[i] = r[domain.ColPlayerName]
		}
	}
	return out
}

func personRow(name string) []string {
	return []string{"2025-11-09", name, "FALSE", "", "", "0", "0", "0", "Attendance"}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestMemoryStore_EnsureHeader verifies header repair keeps data rows.
func TestMemoryStore_EnsureHeader(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore([]string{"Date", "Name"}, personRow("Alice"))

	repaired, err := s.EnsureHeader(ctx)
	if err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}
	if !repaired {
		t.Error("expected header repair")
	}
	snap := s.Snapshot()
	if !domain.HeaderMatches(snap.Header) {
		t.Errorf("header = %v, want schema header", snap.Header)
	}
	if len(snap.Rows) != 1 || snap.Rows[0][1] != "Alice" {
		t.Errorf("rows = %v, want Alice untouched", snap.Rows)
	}

	repaired, err = s.EnsureHeader(ctx)
	if err != nil || repaired {
		t.Errorf("second EnsureHeader = (%v, %v), want (false, nil)", repaired, err)
	}
	if got := s.Stats().HeaderWrites; got != 1 {
		t.Errorf("HeaderWrites = %d, want 1", got)
	}
}

// TestMemoryStore_FetchReturnsCopy verifies callers cannot mutate the table.
func TestMemoryStore_FetchReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(domain.Header(), personRow("Alice"))

	table, err := s.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	table.Rows[0][1] = "Mallory"
	if got := s.Snapshot().Rows[0][1]; got != "Alice" {
		t.Errorf("stored name = %q, want Alice", got)
	}
	if s.Stats().Fetches != 1 {
		t.Errorf("Fetches = %d, want 1", s.Stats().Fetches)
	}
}

// TestMemoryStore_UpdateCells verifies batched cell updates and short rows.
func TestMemoryStore_UpdateCells(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(domain.Header(), personRow("Alice"), []string{"2025-11-09", "Bob"})

	err := s.UpdateCells(ctx, []CellUpdate{
		{Row: 2, Values: map[domain.Column]string{domain.ColPaid: "TRUE", domain.ColCollection: "4"}},
		{Row: 3, Values: map[domain.Column]string{domain.ColBalance: "4"}},
	})
	if err != nil {
		t.Fatalf("UpdateCells: %v", err)
	}
	rows := s.Snapshot().Rows
	if rows[0][domain.ColPaid] != "TRUE" || rows[0][domain.ColCollection] != "4" {
		t.Errorf("row 2 = %v", rows[0])
	}
	if len(rows[1]) != int(domain.ColBalance)+1 || rows[1][domain.ColBalance] != "4" {
		t.Errorf("row 3 = %v, want padded to balance", rows[1])
	}
	if s.Stats().Updates != 1 {
		t.Errorf("Updates = %d, want 1", s.Stats().Updates)
	}
}

// TestMemoryStore_UpdateCells_OutOfRange verifies no partial update on a bad handle.
func TestMemoryStore_UpdateCells_OutOfRange(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(domain.Header(), personRow("Alice"))

	err := s.UpdateCells(ctx, []CellUpdate{
		{Row: 2, Values: map[domain.Column]string{domain.ColPaid: "TRUE"}},
		{Row: 9, Values: map[domain.Column]string{domain.ColPaid: "TRUE"}},
	})
	if !errors.Is(err, ErrRowOutOfRange) {
		t.Fatalf("err = %v, want ErrRowOutOfRange", err)
	}
	if got := s.Snapshot().Rows[0][domain.ColPaid]; got != "FALSE" {
		t.Errorf("paid = %q, want FALSE (no partial update)", got)
	}
}

// TestMemoryStore_DeleteRows_Positional verifies rows shift up after each removal.
func TestMemoryStore_DeleteRows_Positional(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		handles []domain.RowHandle
		want    []string
	}{
		{"descending removes targets", []domain.RowHandle{5, 3}, []string{"A", "C", "E"}},
		{"ascending shifts onto wrong row", []domain.RowHandle{3, 5}, []string{"A", "C", "D"}},
		{"single", []domain.RowHandle{2}, []string{"B", "C", "D", "E"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMemoryStore(domain.Header(), personRow("A"), personRow("B"), personRow("C"), personRow("D"), personRow("E"))
			if err := s.DeleteRows(ctx, tt.handles); err != nil {
				t.Fatalf("DeleteRows: %v", err)
			}
			if got := namesOf(s.Snapshot().Rows); !equalStrings(got, tt.want) {
				t.Errorf("rows = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestMemoryStore_DeleteRows_HeaderRejected verifies row 1 is never deleted.
func TestMemoryStore_DeleteRows_HeaderRejected(t *testing.T) {
	s := NewMemoryStore(domain.Header(), personRow("A"))
	if err := s.DeleteRows(context.Background(), []domain.RowHandle{1}); !errors.Is(err, ErrRowOutOfRange) {
		t.Errorf("err = %v, want ErrRowOutOfRange", err)
	}
}

// TestMemoryStore_CanceledContext verifies calls honour cancellation.
func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryStore(domain.Header())
	if err := s.Append(ctx, personRow("A")); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(s.Snapshot().Rows) != 0 {
		t.Error("expected no rows after canceled append")
	}
}

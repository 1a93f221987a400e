package ledger

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	domain "squashledger/internal/domain/ledger"
)

func newTestXLSX(t *testing.T) (*XLSXStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sb.xlsx")
	return NewXLSXStore(path, "Ledger"), path
}

// TestXLSXStore_CreatesWorkbook verifies the first header check creates the file.
func TestXLSXStore_CreatesWorkbook(t *testing.T) {
	ctx := context.Background()
	s, path := newTestXLSX(t)

	table, err := s.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll on missing file: %v", err)
	}
	if len(table.Header) != 0 || len(table.Rows) != 0 {
		t.Errorf("table = %+v, want empty", table)
	}

	repaired, err := s.EnsureHeader(ctx)
	if err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}
	if !repaired {
		t.Error("expected header to be written")
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open created workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Ledger")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 || !domain.HeaderMatches(rows[0]) {
		t.Errorf("rows = %v, want schema header only", rows)
	}
}

// TestXLSXStore_AppendUpdateDelete verifies the full row lifecycle.
func TestXLSXStore_AppendUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestXLSX(t)
	if _, err := s.EnsureHeader(ctx); err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}
	for _, name := range []string{"A", "B", "C", "D"} {
		if err := s.Append(ctx, personRow(name)); err != nil {
			t.Fatalf("Append %s: %v", name, err)
		}
	}

	err := s.UpdateCells(ctx, []CellUpdate{
		{Row: 3, Values: map[domain.Column]string{domain.ColPaid: "TRUE", domain.ColCollection: "4", domain.ColBalance: "4"}},
	})
	if err != nil {
		t.Fatalf("UpdateCells: %v", err)
	}

	if err := s.DeleteRows(ctx, []domain.RowHandle{5, 2}); err != nil {
		t.Fatalf("DeleteRows: %v", err)
	}

	table, err := s.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if got := namesOf(table.Rows); !equalStrings(got, []string{"B", "C"}) {
		t.Fatalf("rows = %v, want [B C]", got)
	}
	records := domain.Normalize(table.Header, table.Rows)
	if !records[0].Paid || records[0].Collection.String() != "4" {
		t.Errorf("B = %+v, want paid with collection 4", records[0])
	}
	if records[1].Paid {
		t.Errorf("C = %+v, want unpaid", records[1])
	}
}

// TestXLSXStore_RepairsOriginalHeader verifies an old eight-column workbook keeps its data.
func TestXLSXStore_RepairsOriginalHeader(t *testing.T) {
	ctx := context.Background()
	s, path := newTestXLSX(t)

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "Ledger"); err != nil {
		t.Fatalf("SetSheetName: %v", err)
	}
	old := []string{"Date", "Player Name", "Court", "Time Slot", "Collection", "Expense", "Balance", "Description", "Notes"}
	if err := f.SetSheetRow("Ledger", "A1", &old); err != nil {
		t.Fatalf("SetSheetRow: %v", err)
	}
	if err := f.SetCellValue("Ledger", "A2", "2025-11-09"); err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}
	if err := f.SetCellValue("Ledger", "E2", 4); err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	repaired, err := s.EnsureHeader(ctx)
	if err != nil || !repaired {
		t.Fatalf("EnsureHeader = (%v, %v), want (true, nil)", repaired, err)
	}
	table, err := s.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if !domain.HeaderMatches(table.Header) {
		t.Errorf("header = %v, want schema header", table.Header)
	}
	if len(table.Rows) != 1 || table.Rows[0][0] != "2025-11-09" || table.Rows[0][4] != "4" {
		t.Errorf("rows = %v, want data row untouched", table.Rows)
	}
}

// TestXLSXStore_DeleteOutOfRange verifies nothing is saved when a handle is invalid.
func TestXLSXStore_DeleteOutOfRange(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestXLSX(t)
	if _, err := s.EnsureHeader(ctx); err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}
	if err := s.Append(ctx, personRow("A")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	err := s.DeleteRows(ctx, []domain.RowHandle{2, 7})
	if !errors.Is(err, ErrRowOutOfRange) {
		t.Fatalf("err = %v, want ErrRowOutOfRange", err)
	}
	table, _ := s.FetchAll(ctx)
	if len(table.Rows) != 1 {
		t.Errorf("rows = %v, want A kept", table.Rows)
	}
}

// TestWriteWorkbook verifies the export document round-trips through excelize.
func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	rows := [][]string{personRow("Alice"), personRow("Bob")}
	if err := WriteWorkbook(&buf, "Ledger", domain.Header(), rows); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	got, err := f.GetRows("Ledger")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(got) != 3 || !domain.HeaderMatches(got[0]) {
		t.Fatalf("rows = %v, want header + 2", got)
	}
	if got[2][1] != "Bob" {
		t.Errorf("row 3 name = %q, want Bob", got[2][1])
	}
}

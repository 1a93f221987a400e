package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"

	domain "squashledger/internal/domain/ledger"
)

// DefaultSheet is the worksheet used when none is configured.
const DefaultSheet = "Sheet1"

// XLSXStore implements Store on a local Excel workbook. Each call opens the
// file, applies the change and saves it, so the file can be inspected or
// edited between requests.
type XLSXStore struct {
	mu    sync.Mutex
	path  string
	sheet string
}

// Compile-time check that *XLSXStore satisfies Store.
var _ Store = (*XLSXStore)(nil)

// NewXLSXStore creates a store over the workbook at path. The file is
// created on first write if it does not exist.
func NewXLSXStore(path, sheet string) *XLSXStore {
	if sheet == "" {
		sheet = DefaultSheet
	}
	return &XLSXStore{path: path, sheet: sheet}
}

// EnsureHeader implements Store.
// PRE: none
// POST: Row 1 holds the schema header; data rows unchanged
func (s *XLSXStore) EnsureHeader(ctx context.Context) (bool, error) {
	repaired := false
	err := s.withFile(ctx, func(f *excelize.File, rows [][]string) (bool, error) {
		var current []string
		if len(rows) > 0 {
			current = rows[0]
		}
		if domain.HeaderMatches(current) {
			return false, nil
		}
		// Clear stale header cells beyond the schema width.
		for i := len(domain.Columns()); i < len(current); i++ {
			cell, err := excelize.CoordinatesToCellName(i+1, 1)
			if err != nil {
				return false, err
			}
			if err := f.SetCellStr(s.sheet, cell, ""); err != nil {
				return false, err
			}
		}
		header := domain.Header()
		if err := f.SetSheetRow(s.sheet, "A1", &header); err != nil {
			return false, err
		}
		repaired = true
		return true, nil
	})
	return repaired, err
}

// FetchAll implements Store.
// PRE: none
// POST: Returns header and data rows; a missing file reads as an empty table
func (s *XLSXStore) FetchAll(ctx context.Context) (Table, error) {
	var t Table
	err := s.withFile(ctx, func(_ *excelize.File, rows [][]string) (bool, error) {
		if len(rows) == 0 {
			return false, nil
		}
		t.Header = rows[0]
		t.Rows = rows[1:]
		return false, nil
	})
	return t, err
}

// Append implements Store.
// PRE: row is encoded in column order
// POST: row written below the last non-empty row
func (s *XLSXStore) Append(ctx context.Context, row []string) error {
	return s.withFile(ctx, func(f *excelize.File, rows [][]string) (bool, error) {
		next := len(rows) + 1
		if next < domain.FirstDataRow {
			next = domain.FirstDataRow
		}
		cell, err := excelize.CoordinatesToCellName(1, next)
		if err != nil {
			return false, err
		}
		values := cloneRow(row)
		if err := f.SetSheetRow(s.sheet, cell, &values); err != nil {
			return false, fmt.Errorf("append row %d: %w", next, err)
		}
		return true, nil
	})
}

// UpdateCells implements Store.
// PRE: each update addresses an existing data row
// POST: named cells overwritten and saved once
func (s *XLSXStore) UpdateCells(ctx context.Context, updates []CellUpdate) error {
	return s.withFile(ctx, func(f *excelize.File, rows [][]string) (bool, error) {
		for _, u := range updates {
			if err := checkHandle(u.Row, len(rows)); err != nil {
				return false, err
			}
		}
		for _, u := range updates {
			for col, v := range u.Values {
				cell, err := excelize.CoordinatesToCellName(int(col)+1, int(u.Row))
				if err != nil {
					return false, err
				}
				if err := f.SetCellStr(s.sheet, cell, v); err != nil {
					return false, fmt.Errorf("update %s: %w", cell, err)
				}
			}
		}
		return true, nil
	})
}

// DeleteRows implements Store.
// PRE: rows address existing data rows at the time each is removed
// POST: rows removed in order and saved once; nothing is saved on error
func (s *XLSXStore) DeleteRows(ctx context.Context, handles []domain.RowHandle) error {
	return s.withFile(ctx, func(f *excelize.File, rows [][]string) (bool, error) {
		count := len(rows)
		for _, h := range handles {
			if err := checkHandle(h, count); err != nil {
				return false, err
			}
			if err := f.RemoveRow(s.sheet, int(h)); err != nil {
				return false, fmt.Errorf("remove row %d: %w", h, err)
			}
			count--
		}
		return true, nil
	})
}

// withFile opens the workbook, reads the sheet and runs fn. The workbook is
// saved when fn reports a change.
func (s *XLSXStore) withFile(ctx context.Context, fn func(f *excelize.File, rows [][]string) (bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(s.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", s.sheet, err)
	}
	changed, err := fn(f, rows)
	if err != nil || !changed {
		return err
	}
	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", s.path, err)
	}
	return nil
}

func (s *XLSXStore) open() (*excelize.File, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		f := excelize.NewFile()
		if s.sheet != DefaultSheet {
			if err := f.SetSheetName(DefaultSheet, s.sheet); err != nil {
				f.Close()
				return nil, err
			}
		}
		return f, nil
	}
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", s.path, err)
	}
	idx, err := f.GetSheetIndex(s.sheet)
	if err != nil {
		f.Close()
		return nil, err
	}
	if idx < 0 {
		if _, err := f.NewSheet(s.sheet); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func checkHandle(h domain.RowHandle, rowCount int) error {
	if int(h) < domain.FirstDataRow || int(h) > rowCount {
		return fmt.Errorf("row %d: %w", h, ErrRowOutOfRange)
	}
	return nil
}

// WriteWorkbook writes header and rows as a single-sheet workbook to w.
// PRE: sheet is a valid worksheet name
// POST: w receives a complete .xlsx document
func WriteWorkbook(w io.Writer, sheet string, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = DefaultSheet
	}
	if sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, sheet); err != nil {
			return err
		}
	}

	h := cloneRow(header)
	if err := f.SetSheetRow(sheet, "A1", &h); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+domain.FirstDataRow)
		if err != nil {
			return err
		}
		values := cloneRow(r)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	if len(header) > 0 {
		last, err := excelize.ColumnNumberToName(len(header))
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "A", last, 14); err != nil {
			return err
		}
	}
	return f.Write(w)
}

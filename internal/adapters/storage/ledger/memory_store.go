package ledger

import (
	"context"
	"fmt"
	"sync"

	domain "squashledger/internal/domain/ledger"
)

// MemoryStats counts calls made against a MemoryStore.
type MemoryStats struct {
	HeaderWrites int
	Fetches      int
	Appends      int
	Updates      int
	Deletes      int
}

// MemoryStore implements Store with an in-process positional table.
// Deleting a row shifts every row below it up by one, like a spreadsheet.
type MemoryStore struct {
	mu     sync.Mutex
	header []string
	rows   [][]string
	stats  MemoryStats
}

// Compile-time check that *MemoryStore satisfies Store.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a MemoryStore holding the given header and rows.
// A nil header starts an empty table.
func NewMemoryStore(header []string, rows ...[]string) *MemoryStore {
	s := &MemoryStore{header: cloneRow(header)}
	for _, r := range rows {
		s.rows = append(s.rows, cloneRow(r))
	}
	return s
}

// EnsureHeader implements Store.
// PRE: none
// POST: Header equals the schema header; data rows unchanged
func (s *MemoryStore) EnsureHeader(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if domain.HeaderMatches(s.header) {
		return false, nil
	}
	s.header = domain.Header()
	s.stats.HeaderWrites++
	return true, nil
}

// FetchAll implements Store.
// PRE: none
// POST: Returns a copy of the table
func (s *MemoryStore) FetchAll(ctx context.Context) (Table, error) {
	if err := ctx.Err(); err != nil {
		return Table{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Fetches++
	return Table{Header: cloneRow(s.header), Rows: cloneRows(s.rows)}, nil
}

// Append implements Store.
// PRE: row is encoded in column order
// POST: row added after the last data row
func (s *MemoryStore) Append(ctx context.Context, row []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, cloneRow(row))
	s.stats.Appends++
	return nil
}

// UpdateCells implements Store. Either every update applies or none does.
// PRE: each update addresses an existing data row
// POST: named cells overwritten
func (s *MemoryStore) UpdateCells(ctx context.Context, updates []CellUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range updates {
		if _, err := s.index(u.Row); err != nil {
			return err
		}
	}
	for _, u := range updates {
		i, _ := s.index(u.Row)
		for col, v := range u.Values {
			for len(s.rows[i]) <= int(col) {
				s.rows[i] = append(s.rows[i], "")
			}
			s.rows[i][col] = v
		}
	}
	s.stats.Updates++
	return nil
}

// DeleteRows implements Store.
// PRE: rows address existing data rows at the time each is removed
// POST: rows removed in order; stops at the first invalid handle
func (s *MemoryStore) DeleteRows(ctx context.Context, rows []domain.RowHandle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Deletes++
	for _, h := range rows {
		i, err := s.index(h)
		if err != nil {
			return err
		}
		s.rows = append(s.rows[:i], s.rows[i+1:]...)
	}
	return nil
}

// Stats returns the call counters.
func (s *MemoryStore) Stats() MemoryStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Snapshot returns a copy of the table without counting a fetch.
func (s *MemoryStore) Snapshot() Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Table{Header: cloneRow(s.header), Rows: cloneRows(s.rows)}
}

func (s *MemoryStore) index(h domain.RowHandle) (int, error) {
	i := int(h) - domain.FirstDataRow
	if i < 0 || i >= len(s.rows) {
		return 0, fmt.Errorf("row %d: %w", h, ErrRowOutOfRange)
	}
	return i, nil
}

func cloneRow(r []string) []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r))
	copy(out, r)
	return out
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = cloneRow(r)
	}
	return out
}

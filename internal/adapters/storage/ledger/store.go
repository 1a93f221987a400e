package ledger

import (
	"context"
	"errors"

	domain "squashledger/internal/domain/ledger"
)

// ErrRowOutOfRange is returned when a row handle does not address a data row.
var ErrRowOutOfRange = errors.New("row handle does not address a data row")

// Table is the raw contents of the ledger sheet: header row plus data rows.
// Cell values are text; trailing empty cells may be omitted.
type Table struct {
	Header []string
	Rows   [][]string
}

// CellUpdate sets named cells of one row.
type CellUpdate struct {
	Row    domain.RowHandle
	Values map[domain.Column]string
}

// Store is the row-oriented backing table for the ledger.
// Every call is one synchronous round trip; transport errors are returned
// as-is and never retried.
type Store interface {
	// EnsureHeader rewrites row 1 when it does not exactly match the schema
	// header, leaving data rows untouched. repaired reports a rewrite.
	EnsureHeader(ctx context.Context) (repaired bool, err error)
	FetchAll(ctx context.Context) (Table, error)
	Append(ctx context.Context, row []string) error
	// UpdateCells applies every update in a single call.
	UpdateCells(ctx context.Context, updates []CellUpdate) error
	// DeleteRows removes rows positionally in the order given; later rows
	// shift up after each removal.
	DeleteRows(ctx context.Context, rows []domain.RowHandle) error
}

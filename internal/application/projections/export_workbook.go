package projections

import (
	"bytes"
	"context"
	"fmt"
	"time"

	storage "squashledger/internal/adapters/storage/ledger"
	"squashledger/internal/domain/ledger"
)

// ExportWorkbookQuery carries input for the workbook export.
type ExportWorkbookQuery struct {
	Date time.Time // optional: if zero, the whole ledger is exported
}

// ExportWorkbookDeps holds dependencies for the workbook export.
type ExportWorkbookDeps struct {
	View  LedgerReader
	Sheet string // optional: defaults to the store's default sheet name
}

// ExportWorkbookResult carries the encoded workbook.
type ExportWorkbookResult struct {
	Filename string
	Content  []byte
	Rows     int
}

// QueryExportWorkbook renders the cached ledger as an .xlsx workbook in the
// stored column layout, so the file can be reopened by the xlsx backend.
// PRE: none
// POST: Content is a workbook with the schema header and one row per record
func QueryExportWorkbook(ctx context.Context, query ExportWorkbookQuery, deps ExportWorkbookDeps) (ExportWorkbookResult, error) {
	res, err := QueryGetLedger(ctx, GetLedgerQuery{Date: query.Date}, GetLedgerDeps{View: deps.View})
	if err != nil {
		return ExportWorkbookResult{}, err
	}

	rows := make([][]string, len(res.Records))
	for i, r := range res.Records {
		rows[i] = r.Row()
	}

	var buf bytes.Buffer
	if err := storage.WriteWorkbook(&buf, deps.Sheet, ledger.Header(), rows); err != nil {
		return ExportWorkbookResult{}, fmt.Errorf("write workbook: %w", err)
	}

	name := "ledger.xlsx"
	if !query.Date.IsZero() {
		name = "ledger-" + ledger.FormatDate(query.Date) + ".xlsx"
	}
	return ExportWorkbookResult{Filename: name, Content: buf.Bytes(), Rows: len(rows)}, nil
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
	"golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	domain "squashledger/internal/domain/ledger"
)

// rawInput stores cell text exactly as given, so dates stay YYYY-MM-DD text
// and booleans stay TRUE/FALSE text.
const rawInput = "RAW"

// SheetsConfig locates the ledger worksheet and the credentials to reach it.
type SheetsConfig struct {
	SpreadsheetID   string
	Sheet           string
	CredentialsJSON string // service account key; takes precedence over CredentialsFile
	CredentialsFile string // path to a service account key
}

// SheetsStore implements Store on a Google Sheets worksheet.
type SheetsStore struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string

	mu      sync.Mutex
	sheetID *int64 // numeric worksheet id, resolved on first delete
}

// Compile-time check that *SheetsStore satisfies Store.
var _ Store = (*SheetsStore)(nil)

// NewSheetsStore builds a Sheets client. Service account credentials come
// from cfg; with none configured, Application Default Credentials are used.
// Extra options are passed to the client (tests point it at a fake server).
// PRE: cfg.SpreadsheetID is non-empty
// POST: Returns a store or a configuration error
func NewSheetsStore(ctx context.Context, cfg SheetsConfig, opts ...goption.ClientOption) (*SheetsStore, error) {
	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheet := strings.TrimSpace(cfg.Sheet)
	if sheet == "" {
		sheet = DefaultSheet
	}

	var key []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		key = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		key = b
	}
	if key != nil {
		jwt, err := google.JWTConfigFromJSON(key, gsheet.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("service account credentials: %w", err)
		}
		opts = append([]goption.ClientOption{goption.WithHTTPClient(jwt.Client(ctx))}, opts...)
	} else {
		opts = append([]goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}, opts...)
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &SheetsStore{svc: svc, spreadsheetID: id, sheet: sheet}, nil
}

// a1 qualifies a cell range with the worksheet name.
func (s *SheetsStore) a1(rng string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(s.sheet, "'", "''"), rng)
}

// EnsureHeader implements Store.
// PRE: none
// POST: Row 1 holds the schema header; data rows unchanged
func (s *SheetsStore) EnsureHeader(ctx context.Context) (bool, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.a1("1:1")).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("read header: %w", err)
	}
	var current []string
	if len(resp.Values) > 0 {
		current = toStrings(resp.Values[0])
	}
	if domain.HeaderMatches(current) {
		return false, nil
	}

	width := len(domain.Columns())
	if len(current) > width {
		first, _ := excelize.ColumnNumberToName(width + 1)
		last, _ := excelize.ColumnNumberToName(len(current))
		rng := s.a1(fmt.Sprintf("%s1:%s1", first, last))
		if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
			return false, fmt.Errorf("clear header overflow: %w", err)
		}
	}

	vr := &gsheet.ValueRange{Values: [][]any{toCells(domain.Header())}}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, s.a1(s.headerRange()), vr).
		ValueInputOption(rawInput).
		Context(ctx).
		Do()
	if err != nil {
		return false, fmt.Errorf("write header: %w", err)
	}
	return true, nil
}

func (s *SheetsStore) headerRange() string {
	last, _ := excelize.ColumnNumberToName(len(domain.Columns()))
	return "A1:" + last + "1"
}

func (s *SheetsStore) tableRange() string {
	last, _ := excelize.ColumnNumberToName(len(domain.Columns()))
	return "A:" + last
}

// FetchAll implements Store.
// PRE: none
// POST: Returns header and data rows as formatted text
func (s *SheetsStore) FetchAll(ctx context.Context) (Table, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.a1(s.tableRange())).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %s: %w", s.sheet, err)
	}
	if len(resp.Values) == 0 {
		return Table{}, nil
	}
	t := Table{Header: toStrings(resp.Values[0])}
	for _, r := range resp.Values[1:] {
		t.Rows = append(t.Rows, toStrings(r))
	}
	return t, nil
}

// Append implements Store.
// PRE: row is encoded in column order
// POST: row inserted after the table
func (s *SheetsStore) Append(ctx context.Context, row []string) error {
	vr := &gsheet.ValueRange{Values: [][]any{toCells(row)}}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.a1(s.tableRange()), vr).
		ValueInputOption(rawInput).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", s.sheet, err)
	}
	return nil
}

// UpdateCells implements Store.
// PRE: each update addresses an existing data row
// POST: all cells written in one batch request
func (s *SheetsStore) UpdateCells(ctx context.Context, updates []CellUpdate) error {
	req := &gsheet.BatchUpdateValuesRequest{ValueInputOption: rawInput}
	for _, u := range updates {
		if int(u.Row) < domain.FirstDataRow {
			return fmt.Errorf("row %d: %w", u.Row, ErrRowOutOfRange)
		}
		for _, col := range domain.Columns() {
			v, ok := u.Values[col]
			if !ok {
				continue
			}
			req.Data = append(req.Data, &gsheet.ValueRange{
				Range:  s.a1(fmt.Sprintf("%s%d", col.Letter(), u.Row)),
				Values: [][]any{{v}},
			})
		}
	}
	if len(req.Data) == 0 {
		return nil
	}
	if _, err := s.svc.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("update cells: %w", err)
	}
	return nil
}

// DeleteRows implements Store. The requests run in the order given within
// one batch, so callers pass handles in descending order.
// PRE: rows address existing data rows at the time each is removed
// POST: rows removed, or none on error
func (s *SheetsStore) DeleteRows(ctx context.Context, rows []domain.RowHandle) error {
	if len(rows) == 0 {
		return nil
	}
	sheetID, err := s.resolveSheetID(ctx)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{}
	for _, h := range rows {
		if int(h) < domain.FirstDataRow {
			return fmt.Errorf("row %d: %w", h, ErrRowOutOfRange)
		}
		req.Requests = append(req.Requests, &gsheet.Request{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(h) - 1,
					EndIndex:   int64(h),
					// The first worksheet has id 0, which would otherwise be omitted.
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		})
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete rows: %w", err)
	}
	return nil
}

func (s *SheetsStore) resolveSheetID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sheetID != nil {
		return *s.sheetID, nil
	}
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).IncludeGridData(false).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.sheet {
			id := sh.Properties.SheetId
			s.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("worksheet %q not found", s.sheet)
}

func toStrings(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}

func toCells(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

package projections

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"squashledger/internal/application/listutil"
	"squashledger/internal/domain/ledger"
	"squashledger/internal/domain/summary"
)

var (
	nov9  = time.Date(2025, 11, 9, 0, 0, 0, 0, time.UTC)
	nov16 = time.Date(2025, 11, 16, 0, 0, 0, 0, time.UTC)
)

// mockLedgerReader implements LedgerReader for testing.
type mockLedgerReader struct {
	records []ledger.Record
	err     error
	calls   int
}

// Get implements LedgerReader.
// PRE: none
// POST: returns the seeded records or error
func (m *mockLedgerReader) Get(context.Context) ([]ledger.Record, error) {
	m.calls++
	return m.records, m.err
}

// seeded returns records with row handles assigned as a read would.
func seeded(recs ...ledger.Record) *mockLedgerReader {
	for i := range recs {
		recs[i].RowHandle = ledger.RowHandle(i + ledger.FirstDataRow)
	}
	return &mockLedgerReader{records: recs}
}

func bobScenario() *mockLedgerReader {
	return seeded(
		ledger.NewAttendance(nov9, "Bob").WithPayment(decimal.NewFromInt(4)),
		ledger.NewCourtBooking(nov9, 1, "3–4pm", decimal.NewFromInt(6)),
		ledger.NewExpense(nov9, decimal.NewFromInt(12), "Balls"),
		ledger.NewAttendance(nov16, "Amy"),
	)
}

// TestQueryGetSummary_ExplicitDate tests the summary for a given occurrence.
func TestQueryGetSummary_ExplicitDate(t *testing.T) {
	deps := GetSummaryDeps{View: bobScenario(), Rules: ledger.DefaultRules(), Format: summary.DefaultFormat()}

	res, err := QueryGetSummary(context.Background(), GetSummaryQuery{Date: nov9}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if roster := res.Summary.Roster(); len(roster) != 1 || roster[0] != "Bob" {
		t.Errorf("expected [Bob], got %v", roster)
	}
	if !res.Summary.Totals.Balance.Equal(decimal.NewFromInt(-14)) {
		t.Errorf("expected balance -14, got %s", res.Summary.Totals.Balance)
	}
	if !strings.Contains(res.Text, "Current Balance: SGD -14.00") {
		t.Errorf("expected rendered balance, got:\n%s", res.Text)
	}
}

// TestQueryGetSummary_DefaultsToNextOccurrence tests the date chosen when none is given.
func TestQueryGetSummary_DefaultsToNextOccurrence(t *testing.T) {
	deps := GetSummaryDeps{View: bobScenario(), Rules: ledger.DefaultRules(), Format: summary.DefaultFormat()}
	// Wednesday after the 9th.
	now := time.Date(2025, 11, 12, 9, 0, 0, 0, time.UTC)

	res, err := QueryGetSummary(context.Background(), GetSummaryQuery{Now: now}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Summary.Date.Equal(nov16) {
		t.Errorf("expected 2025-11-16, got %v", res.Summary.Date)
	}
	if roster := res.Summary.Roster(); len(roster) != 1 || roster[0] != "Amy" {
		t.Errorf("expected [Amy], got %v", roster)
	}
}

// TestQueryGetSummary_ReadError tests that read failures propagate.
func TestQueryGetSummary_ReadError(t *testing.T) {
	boom := errors.New("sheets unavailable")
	deps := GetSummaryDeps{View: &mockLedgerReader{err: boom}, Rules: ledger.DefaultRules()}
	if _, err := QueryGetSummary(context.Background(), GetSummaryQuery{Date: nov9}, deps); !errors.Is(err, boom) {
		t.Errorf("expected read error, got %v", err)
	}
}

// TestQueryGetLedger tests date filtering and store order.
func TestQueryGetLedger(t *testing.T) {
	deps := GetLedgerDeps{View: bobScenario()}

	all, err := QueryGetLedger(context.Background(), GetLedgerQuery{}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all.Records) != 4 {
		t.Errorf("expected 4 records, got %d", len(all.Records))
	}

	day, err := QueryGetLedger(context.Background(), GetLedgerQuery{Date: nov9}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(day.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(day.Records))
	}
	for i, r := range day.Records {
		if int(r.RowHandle) != i+ledger.FirstDataRow {
			t.Errorf("expected store order, got handle %d at %d", r.RowHandle, i)
		}
	}
}

// TestQueryGetLedger_Filters tests search, kind, unpaid and paging.
func TestQueryGetLedger_Filters(t *testing.T) {
	tests := []struct {
		name  string
		query GetLedgerQuery
		want  []string
	}{
		{"search player", GetLedgerQuery{Filter: listutil.FilterParams{Search: "am"}}, []string{"Amy"}},
		{"search description", GetLedgerQuery{Filter: listutil.FilterParams{Search: "ball"}}, []string{"Balls"}},
		{"kind court", GetLedgerQuery{Filter: listutil.FilterParams{Kind: listutil.KindCourt}}, []string{"Court booking"}},
		{"kind expense", GetLedgerQuery{Filter: listutil.FilterParams{Kind: listutil.KindExpense}}, []string{"Balls"}},
		{"unpaid", GetLedgerQuery{Filter: listutil.FilterParams{Unpaid: true}}, []string{"Amy"}},
		{"second page", GetLedgerQuery{Page: listutil.PageParams{Page: 2, PerPage: 2}}, []string{"Balls", "Amy"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := QueryGetLedger(context.Background(), tt.query, GetLedgerDeps{View: bobScenario()})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var got []string
			for _, r := range res.Records {
				label := r.PlayerName
				if label == "" {
					label = r.Description
				}
				got = append(got, label)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

// TestQueryGetLedger_PageInfo tests the reported totals.
func TestQueryGetLedger_PageInfo(t *testing.T) {
	res, err := QueryGetLedger(context.Background(), GetLedgerQuery{Page: listutil.PageParams{Page: 1, PerPage: 10}}, GetLedgerDeps{View: bobScenario()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Page.Total != 4 || res.Page.TotalPages != 1 {
		t.Errorf("unexpected page info %+v", res.Page)
	}
}

// TestQueryUpcomingOccurrences tests dates and booking counts.
func TestQueryUpcomingOccurrences(t *testing.T) {
	deps := UpcomingOccurrencesDeps{View: bobScenario(), Rules: ledger.DefaultRules()}

	got, err := QueryUpcomingOccurrences(context.Background(), UpcomingOccurrencesQuery{Count: 2, Now: nov9.Add(10 * time.Hour)}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || !got[0].Date.Equal(nov9) || !got[1].Date.Equal(nov16) {
		t.Fatalf("expected [nov9 nov16], got %+v", got)
	}
	if got[0].Players != 1 || got[0].Paid != 1 || got[1].Players != 1 || got[1].Paid != 0 {
		t.Errorf("unexpected counts %+v", got)
	}
}

// TestQueryUpcomingOccurrences_Clamp tests count bounds.
func TestQueryUpcomingOccurrences_Clamp(t *testing.T) {
	deps := UpcomingOccurrencesDeps{Rules: ledger.DefaultRules()}
	tests := []struct {
		count int
		want  int
	}{
		{0, DefaultOccurrenceCount},
		{-3, DefaultOccurrenceCount},
		{1, 1},
		{500, MaxOccurrenceCount},
	}
	for _, tt := range tests {
		got, err := QueryUpcomingOccurrences(context.Background(), UpcomingOccurrencesQuery{Count: tt.count, Now: nov9}, deps)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != tt.want {
			t.Errorf("count %d: expected %d dates, got %d", tt.count, tt.want, len(got))
		}
	}
}

// TestQueryExportWorkbook tests that the export reopens with the schema layout.
func TestQueryExportWorkbook(t *testing.T) {
	res, err := QueryExportWorkbook(context.Background(), ExportWorkbookQuery{Date: nov9}, ExportWorkbookDeps{View: bobScenario()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Filename != "ledger-2025-11-09.xlsx" || res.Rows != 3 {
		t.Errorf("unexpected result %q rows=%d", res.Filename, res.Rows)
	}

	f, err := excelize.OpenReader(bytes.NewReader(res.Content))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(rows))
	}
	if !ledger.HeaderMatches(rows[0]) {
		t.Errorf("unexpected header %q", rows[0])
	}
	records := ledger.Normalize(rows[0], rows[1:])
	if records[0].PlayerName != "Bob" || !records[0].Paid || records[1].Court != 1 {
		t.Errorf("unexpected records %+v", records)
	}
}

package ledger_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"squashledger/internal/domain/ledger"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TestNormalize_FullRow tests a row carrying every column.
func TestNormalize_FullRow(t *testing.T) {
	rows := [][]string{
		{"2025-11-09", "Alice", "TRUE", "", "", "4", "0", "4", "Attendance"},
	}
	records := ledger.Normalize(ledger.Header(), rows)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if !r.Date.Equal(date(2025, 11, 9)) {
		t.Errorf("expected date 2025-11-09, got %v", r.Date)
	}
	if r.PlayerName != "Alice" || !r.Paid {
		t.Errorf("expected Alice paid, got %q paid=%v", r.PlayerName, r.Paid)
	}
	if r.HasCourt {
		t.Error("expected no court")
	}
	if !r.Collection.Equal(decimal.NewFromInt(4)) || !r.Balance.Equal(decimal.NewFromInt(4)) {
		t.Errorf("expected collection=4 balance=4, got %s %s", r.Collection, r.Balance)
	}
	if r.RowHandle != 2 {
		t.Errorf("expected row handle 2, got %d", r.RowHandle)
	}
}

// TestNormalize_RowHandlesFollowPosition tests handle assignment below the header.
func TestNormalize_RowHandlesFollowPosition(t *testing.T) {
	rows := [][]string{{"2025-11-09"}, {"2025-11-16"}, {"2025-11-23"}}
	records := ledger.Normalize(ledger.Header(), rows)
	for i, r := range records {
		if int(r.RowHandle) != i+ledger.FirstDataRow {
			t.Errorf("record %d: expected handle %d, got %d", i, i+ledger.FirstDataRow, r.RowHandle)
		}
	}
}

// TestNormalize_MissingColumnsReadEmpty tests rows from a table whose header lacks columns.
func TestNormalize_MissingColumnsReadEmpty(t *testing.T) {
	header := []string{"Date", "Player Name", "Court", "Time Slot", "Collection", "Expense", "Balance", "Description"}
	rows := [][]string{{"2025-11-09", "Bob", "", "2–3pm", "4", "0", "4", "Player booking"}}
	records := ledger.Normalize(header, rows)
	r := records[0]
	if r.Paid {
		t.Error("expected paid=false when the column is absent")
	}
	if r.TimeSlot != "2–3pm" {
		t.Errorf("expected time slot from shifted column, got %q", r.TimeSlot)
	}
	if r.Description != "Player booking" {
		t.Errorf("expected description, got %q", r.Description)
	}
}

// TestNormalize_ShortRows tests rows with trailing cells omitted by the store.
func TestNormalize_ShortRows(t *testing.T) {
	records := ledger.Normalize(ledger.Header(), [][]string{{"2025-11-09", "Carol"}})
	r := records[0]
	if r.PlayerName != "Carol" {
		t.Errorf("expected Carol, got %q", r.PlayerName)
	}
	if !r.Collection.IsZero() || !r.Expense.IsZero() || r.Description != "" {
		t.Errorf("expected zero values for missing cells, got %+v", r)
	}
}

// TestNormalize_HeaderMatchIgnoresCaseAndSpace tests column lookup tolerance.
func TestNormalize_HeaderMatchIgnoresCaseAndSpace(t *testing.T) {
	header := []string{" date ", "PLAYER NAME", "paid", "court", "time slot", "collection", "expense", "balance", "description"}
	records := ledger.Normalize(header, [][]string{{"2025-11-09", "Dan", "yes", "3", "", "", "", "", "Attendance"}})
	r := records[0]
	if r.PlayerName != "Dan" || !r.Paid || r.Court != 3 {
		t.Errorf("unexpected record %+v", r)
	}
}

// TestParseDateCell tests date coercion.
func TestParseDateCell(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-11-09", date(2025, 11, 9)},
		{" 2025-11-09 ", date(2025, 11, 9)},
		{"2025-11-09 00:00:00", date(2025, 11, 9)},
		{"09/11/2025", date(2025, 11, 9)},
		{"45970", date(2025, 11, 9)},
		{"45970.75", date(2025, 11, 9)},
		{"11/9/2025", date(2025, 9, 11)},
		{"1", time.Time{}},
		{"2025", time.Time{}},
		{"29999", time.Time{}},
		{"", time.Time{}},
		{"nan", time.Time{}},
		{"next sunday", time.Time{}},
	}
	for _, tt := range tests {
		got := ledger.ParseDateCell(tt.in)
		if !got.Equal(tt.want) {
			t.Errorf("ParseDateCell(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestParseBool tests paid flag coercion.
func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "True", "1", "yes", "Y", " y "} {
		if !ledger.ParseBool(s) {
			t.Errorf("ParseBool(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "false", "0", "no", "paid", "nan"} {
		if ledger.ParseBool(s) {
			t.Errorf("ParseBool(%q) = true, want false", s)
		}
	}
}

// TestParseAmount tests numeric coercion.
func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"4", "4"},
		{"4.50", "4.5"},
		{"-12", "-12"},
		{"SGD 1,200", "1200"},
		{"$6", "6"},
		{"", "0"},
		{"nan", "0"},
		{"six", "0"},
	}
	for _, tt := range tests {
		got := ledger.ParseAmount(tt.in)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ParseAmount(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

// TestParseCourt tests that no court is distinguished from court 0.
func TestParseCourt(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"2", 2, true},
		{"2.0", 2, true},
		{"0", 0, true},
		{"", 0, false},
		{"nan", 0, false},
		{"two", 0, false},
		{"2.5", 0, false},
	}
	for _, tt := range tests {
		got, ok := ledger.ParseCourt(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseCourt(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

// TestParseText tests trimming and nan collapsing.
func TestParseText(t *testing.T) {
	if got := ledger.ParseText("  Alice "); got != "Alice" {
		t.Errorf("expected trimmed text, got %q", got)
	}
	if got := ledger.ParseText("NaN"); got != "" {
		t.Errorf("expected nan to collapse, got %q", got)
	}
}

// TestRecordRow_RoundTrip tests that an encoded record normalizes back to itself.
func TestRecordRow_RoundTrip(t *testing.T) {
	in := ledger.NewCourtBooking(date(2025, 11, 9), 2, "2–4pm", decimal.NewFromInt(12))
	out := ledger.Normalize(ledger.Header(), [][]string{in.Row()})[0]
	if !out.Date.Equal(in.Date) || out.Court != 2 || !out.HasCourt || out.TimeSlot != "2–4pm" {
		t.Errorf("unexpected round trip %+v", out)
	}
	if !out.Expense.Equal(decimal.NewFromInt(12)) || !out.Balance.Equal(decimal.NewFromInt(-12)) {
		t.Errorf("expected expense=12 balance=-12, got %s %s", out.Expense, out.Balance)
	}
}

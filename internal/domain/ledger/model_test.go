package ledger_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"squashledger/internal/domain/ledger"
)

// TestNewAttendance tests the shape of a fresh attendance record.
func TestNewAttendance(t *testing.T) {
	r := ledger.NewAttendance(date(2025, 11, 9), "  Alice ")
	if r.PlayerName != "Alice" {
		t.Errorf("expected trimmed name, got %q", r.PlayerName)
	}
	if r.Paid || !r.Collection.IsZero() || !r.Expense.IsZero() || !r.Balance.IsZero() {
		t.Errorf("expected unpaid zero record, got %+v", r)
	}
	if !r.IsAttendance() {
		t.Error("expected attendance record")
	}
	row := r.Row()
	if row[ledger.ColPaid] != "FALSE" {
		t.Errorf("expected paid cell FALSE, got %q", row[ledger.ColPaid])
	}
	if row[ledger.ColCourt] != "" {
		t.Errorf("expected empty court cell, got %q", row[ledger.ColCourt])
	}
}

// TestWithPayment tests the paid transition.
func TestWithPayment(t *testing.T) {
	r := ledger.NewAttendance(date(2025, 11, 9), "Alice").WithPayment(decimal.NewFromInt(4))
	if !r.Paid {
		t.Error("expected paid")
	}
	if !r.Collection.Equal(decimal.NewFromInt(4)) || !r.Balance.Equal(decimal.NewFromInt(4)) {
		t.Errorf("expected collection=4 balance=4, got %s %s", r.Collection, r.Balance)
	}
	if err := r.Validate(); err != nil {
		t.Errorf("expected valid record, got %v", err)
	}
}

// TestNewCourtBooking tests the balance of a court expense.
func TestNewCourtBooking(t *testing.T) {
	r := ledger.NewCourtBooking(date(2025, 11, 9), 2, "2–4pm", decimal.NewFromInt(12))
	if !r.IsCourtBooking() || r.IsAttendance() {
		t.Errorf("unexpected kind %+v", r)
	}
	if !r.Balance.Equal(decimal.NewFromInt(-12)) {
		t.Errorf("expected balance -12, got %s", r.Balance)
	}
	row := r.Row()
	if row[ledger.ColPaid] != "" {
		t.Errorf("expected empty paid cell on expense rows, got %q", row[ledger.ColPaid])
	}
	if row[ledger.ColCourt] != "2" || row[ledger.ColBalance] != "-12" {
		t.Errorf("unexpected row %v", row)
	}
}

// TestRecordValidate tests write-time validation.
func TestRecordValidate(t *testing.T) {
	d := date(2025, 11, 9)
	unbalanced := ledger.NewExpense(d, decimal.NewFromInt(5), "Balls")
	unbalanced.Balance = decimal.NewFromInt(5)

	tests := []struct {
		name    string
		record  ledger.Record
		wantErr error
	}{
		{"valid expense", ledger.NewExpense(d, decimal.NewFromInt(5), "Balls"), nil},
		{"valid collection", ledger.NewCollection(d, decimal.NewFromInt(20)), nil},
		{"missing date", ledger.Record{Description: "Balls"}, ledger.ErrMissingDate},
		{"empty description", ledger.NewExpense(d, decimal.NewFromInt(5), "  "), ledger.ErrEmptyDescription},
		{"empty player", ledger.NewAttendance(d, ""), ledger.ErrEmptyPlayerName},
		{"negative", ledger.NewExpense(d, decimal.NewFromInt(-1), "Refund"), ledger.ErrNegativeAmount},
		{"unbalanced", unbalanced, ledger.ErrUnbalancedRecord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if err != nil && !errors.Is(err, ledger.ErrInvalid) {
				t.Errorf("expected validation error to match ErrInvalid, got %v", err)
			}
		})
	}
}

// TestIsReservedDescription tests reserved description matching.
func TestIsReservedDescription(t *testing.T) {
	for _, d := range []string{"Attendance", "attendance", " Court booking ", "COLLECTION"} {
		if !ledger.IsReservedDescription(d) {
			t.Errorf("expected %q to be reserved", d)
		}
	}
	for _, d := range []string{"Balls", "Court", "Attendance fee"} {
		if ledger.IsReservedDescription(d) {
			t.Errorf("expected %q not reserved", d)
		}
	}
}

// TestFindAttendance tests lookup by date and case-insensitive name.
func TestFindAttendance(t *testing.T) {
	d := date(2025, 11, 9)
	records := []ledger.Record{
		ledger.NewCourtBooking(d, 1, "2–3pm", decimal.NewFromInt(6)),
		ledger.NewAttendance(d, "Alice"),
		ledger.NewAttendance(d.AddDate(0, 0, 7), "Bob"),
	}
	if _, ok := ledger.FindAttendance(records, d, "alice "); !ok {
		t.Error("expected to find alice")
	}
	if _, ok := ledger.FindAttendance(records, d, "Bob"); ok {
		t.Error("expected Bob not on 2025-11-09")
	}
}

// TestInvalidf tests formatted validation failures.
func TestInvalidf(t *testing.T) {
	err := ledger.Invalidf("court %d is out of range", 9)
	if err.Error() != "court 9 is out of range" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, ledger.ErrInvalid) {
		t.Error("expected ErrInvalid match")
	}
}

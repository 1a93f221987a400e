package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Reserved descriptions with meaning to the summary.
const (
	DescAttendance   = "Attendance"
	DescCourtBooking = "Court booking"
	DescCollection   = "Collection"
)

// RowHandle is the 1-based row number of a record in the backing table.
// Handles are only valid until the next insert or delete.
type RowHandle int

// Record is one ledger entry.
type Record struct {
	Date        time.Time // zero when the stored date did not parse
	PlayerName  string
	Paid        bool // meaningful for attendance records only
	Court       int
	HasCourt    bool
	TimeSlot    string
	Collection  decimal.Decimal
	Expense     decimal.Decimal
	Balance     decimal.Decimal
	Description string
	RowHandle   RowHandle // assigned on read, never written back
}

// NewAttendance returns an unpaid attendance record.
func NewAttendance(date time.Time, playerName string) Record {
	return derived(Record{
		Date:        Day(date),
		PlayerName:  strings.TrimSpace(playerName),
		Description: DescAttendance,
	})
}

// NewCourtBooking returns a court booking expense record.
func NewCourtBooking(date time.Time, court int, timeSlot string, expense decimal.Decimal) Record {
	return derived(Record{
		Date:        Day(date),
		Court:       court,
		HasCourt:    true,
		TimeSlot:    timeSlot,
		Expense:     expense,
		Description: DescCourtBooking,
	})
}

// NewExpense returns a free-form expense record.
func NewExpense(date time.Time, amount decimal.Decimal, description string) Record {
	return derived(Record{
		Date:        Day(date),
		Expense:     amount,
		Description: strings.TrimSpace(description),
	})
}

// NewCollection returns a lump-sum collection record.
func NewCollection(date time.Time, amount decimal.Decimal) Record {
	return derived(Record{
		Date:        Day(date),
		Collection:  amount,
		Description: DescCollection,
	})
}

// WithPayment returns the record marked paid with the given fee as collection.
// Balance stays collection minus expense, so it equals the fee only when the
// row carries no expense.
func (r Record) WithPayment(fee decimal.Decimal) Record {
	r.Paid = true
	r.Collection = fee
	return derived(r)
}

func derived(r Record) Record {
	r.Balance = r.Collection.Sub(r.Expense)
	return r
}

// IsAttendance reports whether the record is a player's attendance entry.
func (r Record) IsAttendance() bool {
	return strings.EqualFold(r.Description, DescAttendance)
}

// IsCourtBooking reports whether the record is a court booking expense.
func (r Record) IsCourtBooking() bool {
	return strings.EqualFold(r.Description, DescCourtBooking)
}

// HasDate reports whether the stored date parsed.
func (r Record) HasDate() bool {
	return !r.Date.IsZero()
}

// OnDate reports whether the record belongs to the occurrence on day d.
func (r Record) OnDate(d time.Time) bool {
	return r.HasDate() && SameDay(r.Date, d)
}

// Validate checks the record before it is written.
// PRE: Record is populated
// POST: Returns nil if valid, a validation failure otherwise
// INVARIANT: Balance == Collection - Expense
func (r Record) Validate() error {
	if !r.HasDate() {
		return ErrMissingDate
	}
	if strings.TrimSpace(r.Description) == "" {
		return ErrEmptyDescription
	}
	if r.IsAttendance() && strings.TrimSpace(r.PlayerName) == "" {
		return ErrEmptyPlayerName
	}
	if r.Collection.IsNegative() || r.Expense.IsNegative() {
		return ErrNegativeAmount
	}
	if !r.Balance.Equal(r.Collection.Sub(r.Expense)) {
		return ErrUnbalancedRecord
	}
	return nil
}

// IsReservedDescription reports whether desc is one of the reserved descriptions.
func IsReservedDescription(desc string) bool {
	d := strings.TrimSpace(desc)
	return strings.EqualFold(d, DescAttendance) ||
		strings.EqualFold(d, DescCourtBooking) ||
		strings.EqualFold(d, DescCollection)
}

// FindAttendance returns the attendance record for (date, playerName),
// matching the name case-insensitively.
func FindAttendance(records []Record, date time.Time, playerName string) (Record, bool) {
	name := strings.TrimSpace(playerName)
	for _, r := range records {
		if r.IsAttendance() && r.OnDate(date) && strings.EqualFold(strings.TrimSpace(r.PlayerName), name) {
			return r, true
		}
	}
	return Record{}, false
}

// ByHandle indexes records by row handle.
func ByHandle(records []Record) map[RowHandle]Record {
	m := make(map[RowHandle]Record, len(records))
	for _, r := range records {
		m[r.RowHandle] = r
	}
	return m
}

package ledger

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Column identifies one column of the ledger table.
// The numeric value is the zero-based position in the stored row.
type Column int

// Ledger columns in stored order.
const (
	ColDate Column = iota
	ColPlayerName
	ColPaid
	ColCourt
	ColTimeSlot
	ColCollection
	ColExpense
	ColBalance
	ColDescription
)

// FirstDataRow is the row number of the first record; row 1 holds the header.
const FirstDataRow = 2

// DateLayout is the persisted date format.
const DateLayout = "2006-01-02"

var columnNames = [...]string{
	ColDate:        "Date",
	ColPlayerName:  "Player Name",
	ColPaid:        "Paid",
	ColCourt:       "Court",
	ColTimeSlot:    "Time Slot",
	ColCollection:  "Collection",
	ColExpense:     "Expense",
	ColBalance:     "Balance",
	ColDescription: "Description",
}

// Columns returns every column in stored order.
func Columns() []Column {
	cols := make([]Column, len(columnNames))
	for i := range columnNames {
		cols[i] = Column(i)
	}
	return cols
}

// Header returns the header row text in stored order.
func Header() []string {
	h := make([]string, len(columnNames))
	copy(h, columnNames[:])
	return h
}

// String returns the header text of the column.
func (c Column) String() string {
	if c < 0 || int(c) >= len(columnNames) {
		return "Column(" + strconv.Itoa(int(c)) + ")"
	}
	return columnNames[c]
}

// Letter returns the spreadsheet column letter (A for ColDate).
func (c Column) Letter() string {
	return string(rune('A' + int(c)))
}

// HeaderMatches reports whether header is exactly the schema header.
func HeaderMatches(header []string) bool {
	if len(header) != len(columnNames) {
		return false
	}
	for i, name := range columnNames {
		if header[i] != name {
			return false
		}
	}
	return true
}

// Row encodes the record into stored cell text in column order.
// Balance is derived from collection and expense here so that every write
// carries a consistent value regardless of what the caller set.
func (r Record) Row() []string {
	row := make([]string, len(columnNames))
	row[ColDate] = FormatDate(r.Date)
	row[ColPlayerName] = r.PlayerName
	if r.IsAttendance() {
		row[ColPaid] = FormatBool(r.Paid)
	}
	if r.HasCourt {
		row[ColCourt] = strconv.Itoa(r.Court)
	}
	row[ColTimeSlot] = r.TimeSlot
	row[ColCollection] = FormatAmount(r.Collection)
	row[ColExpense] = FormatAmount(r.Expense)
	row[ColBalance] = FormatAmount(r.Collection.Sub(r.Expense))
	row[ColDescription] = r.Description
	return row
}

// FormatDate renders a date cell; the zero time renders empty.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// FormatBool renders a boolean cell as TRUE or FALSE.
func FormatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// FormatAmount renders a numeric cell as plain decimal text.
func FormatAmount(d decimal.Decimal) string {
	return d.String()
}

// columnIndex maps each schema column to its position in header, or -1.
func columnIndex(header []string) map[Column]int {
	idx := make(map[Column]int, len(columnNames))
	for _, c := range Columns() {
		idx[c] = -1
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), columnNames[c]) {
				idx[c] = i
				break
			}
		}
	}
	return idx
}

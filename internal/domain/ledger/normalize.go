package ledger

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Normalize converts raw table text into records conforming to the schema.
// Columns are located by header text; a column missing from the header reads
// as empty for every row. Coercion never fails: bad cells degrade to defaults.
// PRE: rows excludes the header row
// POST: len(result) == len(rows); result[i].RowHandle == i + FirstDataRow
func Normalize(header []string, rows [][]string) []Record {
	idx := columnIndex(header)
	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		cell := func(c Column) string {
			p := idx[c]
			if p < 0 || p >= len(row) {
				return ""
			}
			return row[p]
		}
		rec := Record{
			Date:        ParseDateCell(cell(ColDate)),
			PlayerName:  ParseText(cell(ColPlayerName)),
			Paid:        ParseBool(cell(ColPaid)),
			TimeSlot:    ParseText(cell(ColTimeSlot)),
			Collection:  ParseAmount(cell(ColCollection)),
			Expense:     ParseAmount(cell(ColExpense)),
			Balance:     ParseAmount(cell(ColBalance)),
			Description: ParseText(cell(ColDescription)),
			RowHandle:   RowHandle(i + FirstDataRow),
		}
		rec.Court, rec.HasCourt = ParseCourt(cell(ColCourt))
		records = append(records, rec)
	}
	return records
}

// dateCellLayouts are tried in order. Slashed dates are day-first (Singapore
// locale), so a US-formatted "11/9/2025" reads as 11 September. Rows this
// service writes are always ISO.
var dateCellLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-Jan-2006",
	"2 Jan 2006",
}

// spreadsheetEpoch is day zero of spreadsheet serial dates.
var spreadsheetEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// Serial numbers outside [minSerialDate, maxSerialDate) are plain numbers, not dates.
// 30000 is 1982-02-18; 2958466 is past 9999-12-31.
const (
	minSerialDate = 30000
	maxSerialDate = 2958466
)

// ParseDateCell parses a stored date. Unparseable text returns the zero time.
func ParseDateCell(s string) time.Time {
	s = ParseText(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateCellLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t)
		}
	}
	// Serial day numbers appear when a sheet returns unformatted values.
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= minSerialDate && f < maxSerialDate {
		return spreadsheetEpoch.AddDate(0, 0, int(math.Floor(f)))
	}
	return time.Time{}
}

// ParseBool reads a paid flag: true, 1, yes and y (any case) are true.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}

var amountNoise = strings.NewReplacer("SGD", "", "S$", "", "$", "", "£", "", "€", "", ",", "", " ", "", "\u00a0", "")

// ParseAmount reads a numeric cell; blank or unparseable text is zero.
func ParseAmount(s string) decimal.Decimal {
	s = amountNoise.Replace(ParseText(s))
	if s == "" || s == "-" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseCourt reads a court number. ok is false when the cell holds no integer.
func ParseCourt(s string) (court int, ok bool) {
	s = ParseText(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	// "2.0" comes back from sheets that stored the court as a number.
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
		return int(f), true
	}
	return 0, false
}

// ParseText trims a text cell and collapses a literal "nan" to empty.
func ParseText(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "nan") {
		return ""
	}
	return s
}

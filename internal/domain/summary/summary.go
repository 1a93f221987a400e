package summary

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"squashledger/internal/domain/ledger"
)

// Attendee is one player on the roster for an occurrence.
type Attendee struct {
	Name string
	Paid bool
}

// CourtBooking is one court booked for an occurrence.
type CourtBooking struct {
	Court    int
	HasCourt bool
	TimeSlot string
	Expense  decimal.Decimal
}

// Entry is any other record on the occurrence date (expenses, lump collections).
type Entry struct {
	Description string
	Collection  decimal.Decimal
	Expense     decimal.Decimal
}

// Totals are sums over the whole ledger.
type Totals struct {
	Collection decimal.Decimal
	Expense    decimal.Decimal
	Balance    decimal.Decimal
}

// Summary is the per-occurrence roster plus the cumulative fund position.
type Summary struct {
	Date      time.Time
	Attendees []Attendee
	Courts    []CourtBooking
	Other     []Entry
	Totals    Totals
}

// Build computes the summary for date from the full record set.
// The roster, courts and other entries cover only records on date; totals
// cover every record, including those without a parseable date, because the
// fund is cumulative.
// PRE: records come from one normalized read
// POST: Attendees sorted case-insensitively; Courts in store order
func Build(records []ledger.Record, date time.Time) Summary {
	s := Summary{Date: ledger.Day(date)}
	totals := Totals{Collection: decimal.Zero, Expense: decimal.Zero}

	for _, r := range records {
		totals.Collection = totals.Collection.Add(r.Collection)
		totals.Expense = totals.Expense.Add(r.Expense)

		if !r.OnDate(date) {
			continue
		}
		switch {
		case r.IsAttendance():
			s.Attendees = append(s.Attendees, Attendee{Name: r.PlayerName, Paid: r.Paid})
		case r.IsCourtBooking():
			s.Courts = append(s.Courts, CourtBooking{
				Court:    r.Court,
				HasCourt: r.HasCourt,
				TimeSlot: r.TimeSlot,
				Expense:  r.Expense,
			})
		default:
			s.Other = append(s.Other, Entry{
				Description: r.Description,
				Collection:  r.Collection,
				Expense:     r.Expense,
			})
		}
	}

	// Byte order: capitalised names sort before lower-case ones.
	sort.SliceStable(s.Attendees, func(i, j int) bool {
		return s.Attendees[i].Name < s.Attendees[j].Name
	})

	totals.Balance = totals.Collection.Sub(totals.Expense)
	s.Totals = totals
	return s
}

// Roster returns attendee names in roster order.
func (s Summary) Roster() []string {
	names := make([]string, len(s.Attendees))
	for i, a := range s.Attendees {
		names[i] = a.Name
	}
	return names
}

// PaidCount returns how many attendees have paid.
func (s Summary) PaidCount() int {
	n := 0
	for _, a := range s.Attendees {
		if a.Paid {
			n++
		}
	}
	return n
}

// Format controls how a summary is rendered into a message.
type Format struct {
	Title         string // first line; the date is appended
	Currency      string // label placed before amounts, e.g. SGD
	Fee           decimal.Decimal
	PaymentNumber string // PayNow/PayLah number; empty omits the payment line
}

// DefaultFormat matches the group's usual message.
func DefaultFormat() Format {
	return Format{
		Title:    "Squash",
		Currency: "SGD",
		Fee:      decimal.NewFromInt(4),
	}
}

// Render produces the plain-text notification message.
func Render(s Summary, f Format) string {
	var b strings.Builder
	money := func(d decimal.Decimal) string {
		return strings.TrimSpace(f.Currency + " " + d.StringFixed(2))
	}

	fmt.Fprintf(&b, "%s %s (%s)\n", f.Title, ledger.FormatDate(s.Date), s.Date.Weekday())

	fmt.Fprintf(&b, "\nPlayers (%d, %d paid):\n", len(s.Attendees), s.PaidCount())
	if len(s.Attendees) == 0 {
		b.WriteString("  none yet\n")
	}
	for i, a := range s.Attendees {
		mark := ""
		if a.Paid {
			mark = " (paid)"
		}
		fmt.Fprintf(&b, "%d. %s%s\n", i+1, a.Name, mark)
	}

	if len(s.Courts) > 0 {
		b.WriteString("\nCourts:\n")
		for _, c := range s.Courts {
			court := "Court ?"
			if c.HasCourt {
				court = fmt.Sprintf("Court %d", c.Court)
			}
			fmt.Fprintf(&b, "- %s, %s: %s\n", court, c.TimeSlot, money(c.Expense))
		}
	}

	if len(s.Other) > 0 {
		b.WriteString("\nOther:\n")
		for _, e := range s.Other {
			if e.Collection.IsPositive() {
				fmt.Fprintf(&b, "- %s: +%s\n", e.Description, money(e.Collection))
				continue
			}
			fmt.Fprintf(&b, "- %s: %s\n", e.Description, money(e.Expense))
		}
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "Total Collection: %s\n", money(s.Totals.Collection))
	fmt.Fprintf(&b, "Total Expense: %s\n", money(s.Totals.Expense))
	fmt.Fprintf(&b, "Current Balance: %s\n", money(s.Totals.Balance))

	if f.PaymentNumber != "" {
		fmt.Fprintf(&b, "\nEach player pays %s via PayNow/PayLah to %s\n", money(f.Fee), f.PaymentNumber)
	}
	return b.String()
}

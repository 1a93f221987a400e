package ledger

import (
	"fmt"
	"strings"
	"time"
)

// Day truncates t to its calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Successor returns the next weekly occurrence after d.
func Successor(d time.Time) time.Time {
	return Day(d).AddDate(0, 0, 7)
}

// NextOccurrences returns the next n dates falling on weekday, starting
// with from itself when from is already that weekday.
// PRE: n >= 0
// POST: len(result) == n, dates ascending, 7 days apart
func NextOccurrences(from time.Time, weekday time.Weekday, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	start := Day(from)
	offset := (int(weekday) - int(start.Weekday()) + 7) % 7
	first := start.AddDate(0, 0, offset)
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = first.AddDate(0, 0, 7*i)
	}
	return dates
}

// ParseDate parses a caller-supplied YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrMissingDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, Invalidf("date %q must be YYYY-MM-DD", s)
	}
	return t, nil
}

// CheckOccurrenceDay rejects dates that do not fall on the occurrence weekday.
func CheckOccurrenceDay(d time.Time, weekday time.Weekday) error {
	if d.IsZero() {
		return ErrMissingDate
	}
	if d.Weekday() != weekday {
		return Invalidf("%s is a %s; sessions are on %ss", FormatDate(d), d.Weekday(), weekday)
	}
	return nil
}

// ParseWeekday reads a weekday name such as "sunday" or "Sun".
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) >= 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}

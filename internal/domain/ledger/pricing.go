package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Rules holds the group's fixed prices and schedule.
type Rules struct {
	Fee       decimal.Decimal // per-player session fee
	CourtRate decimal.Decimal // one court for one hour
	MaxCourts int
	Weekday   time.Weekday // day the session runs
}

// DefaultRules returns the group's standing prices: 4 per player,
// 6 per court-hour, courts 1-5, Sundays.
func DefaultRules() Rules {
	return Rules{
		Fee:       decimal.NewFromInt(4),
		CourtRate: decimal.NewFromInt(6),
		MaxCourts: 5,
		Weekday:   time.Sunday,
	}
}

// Validate checks the rules are usable.
func (r Rules) Validate() error {
	if r.Fee.IsNegative() || r.CourtRate.IsNegative() {
		return ErrNegativeAmount
	}
	if r.MaxCourts < 1 {
		return ErrInvalidCourt
	}
	return nil
}

// slotHours lists the bookable time slots and their length in hours.
var slotHours = map[string]int64{
	"2–3pm": 1,
	"3–4pm": 1,
	"4–5pm": 1,
	"2–4pm": 2,
}

// TimeSlots returns the bookable time slots in display order.
func TimeSlots() []string {
	return []string{"2–3pm", "3–4pm", "4–5pm", "2–4pm"}
}

var slotDashes = strings.NewReplacer("-", "–", "—", "–", " ", "")

// NormalizeTimeSlot canonicalizes a slot label ("2-4 PM" becomes "2–4pm").
func NormalizeTimeSlot(slot string) string {
	return strings.ToLower(slotDashes.Replace(strings.TrimSpace(slot)))
}

// CourtExpense prices one court booking for the slot.
// PRE: baseRate is the one-hour court rate
// POST: Returns baseRate times the slot length, or ErrUnknownTimeSlot
func CourtExpense(slot string, baseRate decimal.Decimal) (decimal.Decimal, error) {
	hours, ok := slotHours[NormalizeTimeSlot(slot)]
	if !ok {
		return decimal.Zero, ErrUnknownTimeSlot
	}
	return baseRate.Mul(decimal.NewFromInt(hours)), nil
}

package reminder

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrInvalidHours = errors.New("reminder window hours must satisfy 0 <= start < end <= 24")
)

// Window is the weekly period in which the pre-session reminder may fire.
type Window struct {
	Weekday   time.Weekday
	StartHour int // inclusive
	EndHour   int // exclusive
}

// DefaultWindow is Saturday 18:00-21:00, the evening before a Sunday session.
func DefaultWindow() Window {
	return Window{Weekday: time.Saturday, StartHour: 18, EndHour: 21}
}

// Validate checks the window bounds.
// PRE: none
// POST: Returns nil if hours are ordered and within a day
func (w Window) Validate() error {
	if w.StartHour < 0 || w.EndHour > 24 || w.StartHour >= w.EndHour {
		return ErrInvalidHours
	}
	return nil
}

// Contains reports whether now falls inside the window, in now's location.
func (w Window) Contains(now time.Time) bool {
	if now.Weekday() != w.Weekday {
		return false
	}
	h := now.Hour()
	return h >= w.StartHour && h < w.EndHour
}

// ShouldFire reports whether a reminder is due: now is inside the window and
// none was sent on now's calendar date. lastSent is the date of the previous
// send, or the zero time if none has been recorded.
func (w Window) ShouldFire(now, lastSent time.Time) bool {
	if !w.Contains(now) {
		return false
	}
	if lastSent.IsZero() {
		return true
	}
	return DateKey(lastSent) != DateKey(now)
}

// DateKey formats the calendar date of t in t's location.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

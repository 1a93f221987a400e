package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"squashledger/internal/domain/ledger"
)

// AppendAttendanceInput carries input for the append attendance orchestrator.
type AppendAttendanceInput struct {
	Date       time.Time
	PlayerName string
}

// AppendAttendanceResult reports the appended record or an existing duplicate.
type AppendAttendanceResult struct {
	Record    ledger.Record
	Duplicate bool // true when the player was already booked; nothing was written
}

// ExecuteAppendAttendance books a player for an occurrence as unpaid.
// PRE: PlayerName non-empty; Date falls on the occurrence weekday
// POST: An unpaid attendance row with balance 0 is appended, or Duplicate is set and the store is untouched
func ExecuteAppendAttendance(ctx context.Context, input AppendAttendanceInput, deps LedgerDeps) (AppendAttendanceResult, error) {
	name := strings.TrimSpace(input.PlayerName)
	if name == "" {
		return AppendAttendanceResult{}, ledger.ErrEmptyPlayerName
	}
	if err := ledger.CheckOccurrenceDay(input.Date, deps.Rules.Weekday); err != nil {
		return AppendAttendanceResult{}, err
	}

	records, err := deps.View.Get(ctx)
	if err != nil {
		return AppendAttendanceResult{}, err
	}
	if existing, ok := ledger.FindAttendance(records, input.Date, name); ok {
		slog.Info("ledger_event", "event", "attendance_duplicate", "player", name, "date", ledger.FormatDate(input.Date), "row", int(existing.RowHandle))
		return AppendAttendanceResult{Record: existing, Duplicate: true}, nil
	}

	rec := ledger.NewAttendance(input.Date, name)
	if err := appendRecord(ctx, deps, rec); err != nil {
		return AppendAttendanceResult{}, err
	}

	slog.Info("ledger_event", "event", "attendance_added", "player", name, "date", ledger.FormatDate(rec.Date))
	announce(ctx, deps, []time.Time{rec.Date}, "attendance_added")
	return AppendAttendanceResult{Record: rec}, nil
}

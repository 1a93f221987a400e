package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"squashledger/internal/domain/ledger"
)

// --- Court Expense ---

// AppendCourtExpenseInput carries input for the court expense orchestrator.
type AppendCourtExpenseInput struct {
	Date     time.Time
	Court    int
	TimeSlot string
}

// ExecuteAppendCourtExpense records a court booking priced from the slot length.
// PRE: Court in 1..Rules.MaxCourts; TimeSlot is a recognized slot; Date on the occurrence weekday
// POST: A court booking row with expense = CourtRate x hours and balance = -expense is appended
func ExecuteAppendCourtExpense(ctx context.Context, input AppendCourtExpenseInput, deps LedgerDeps) (ledger.Record, error) {
	if err := ledger.CheckOccurrenceDay(input.Date, deps.Rules.Weekday); err != nil {
		return ledger.Record{}, err
	}
	if input.Court < 1 || input.Court > deps.Rules.MaxCourts {
		return ledger.Record{}, ledger.Invalidf("court must be between 1 and %d", deps.Rules.MaxCourts)
	}
	expense, err := ledger.CourtExpense(input.TimeSlot, deps.Rules.CourtRate)
	if err != nil {
		return ledger.Record{}, err
	}

	rec := ledger.NewCourtBooking(input.Date, input.Court, ledger.NormalizeTimeSlot(input.TimeSlot), expense)
	if err := appendRecord(ctx, deps, rec); err != nil {
		return ledger.Record{}, err
	}

	slog.Info("ledger_event", "event", "court_booked", "date", ledger.FormatDate(rec.Date), "court", rec.Court, "slot", rec.TimeSlot, "expense", rec.Expense.String())
	announce(ctx, deps, []time.Time{rec.Date}, "court_booked")
	return rec, nil
}

// --- Other Expense ---

// AppendOtherExpenseInput carries input for the other expense orchestrator.
type AppendOtherExpenseInput struct {
	Date        time.Time
	Amount      decimal.Decimal
	Description string
}

// ExecuteAppendOtherExpense records a free-form expense such as balls or drinks.
// PRE: Description non-empty and not reserved; Amount >= 0
// POST: An expense row with balance = -amount is appended
func ExecuteAppendOtherExpense(ctx context.Context, input AppendOtherExpenseInput, deps LedgerDeps) (ledger.Record, error) {
	if input.Date.IsZero() {
		return ledger.Record{}, ledger.ErrMissingDate
	}
	if ledger.IsReservedDescription(input.Description) {
		return ledger.Record{}, ledger.ErrReservedDesc
	}

	rec := ledger.NewExpense(input.Date, input.Amount, input.Description)
	if err := appendRecord(ctx, deps, rec); err != nil {
		return ledger.Record{}, err
	}

	slog.Info("ledger_event", "event", "expense_added", "date", ledger.FormatDate(rec.Date), "description", rec.Description, "amount", rec.Expense.String())
	announce(ctx, deps, []time.Time{rec.Date}, "expense_added")
	return rec, nil
}

// --- Collection ---

// AppendCollectionInput carries input for the lump-sum collection orchestrator.
type AppendCollectionInput struct {
	Date    time.Time
	Players int
}

// ExecuteAppendCollection records fees collected outside the roster, e.g. walk-ins paid in cash.
// PRE: Players >= 1
// POST: A collection row with collection = Players x Rules.Fee is appended
func ExecuteAppendCollection(ctx context.Context, input AppendCollectionInput, deps LedgerDeps) (ledger.Record, error) {
	if input.Date.IsZero() {
		return ledger.Record{}, ledger.ErrMissingDate
	}
	if input.Players < 1 {
		return ledger.Record{}, ledger.ErrInvalidPlayers
	}

	amount := deps.Rules.Fee.Mul(decimal.NewFromInt(int64(input.Players)))
	rec := ledger.NewCollection(input.Date, amount)
	if err := appendRecord(ctx, deps, rec); err != nil {
		return ledger.Record{}, err
	}

	slog.Info("ledger_event", "event", "collection_added", "date", ledger.FormatDate(rec.Date), "players", input.Players, "amount", amount.String())
	announce(ctx, deps, []time.Time{rec.Date}, "collection_added")
	return rec, nil
}

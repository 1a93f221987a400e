package ledger

import "fmt"

// ErrInvalid is matched (via errors.Is) by every validation failure raised
// before a ledger operation touches the store.
var ErrInvalid = validationError("invalid ledger input")

type validationError string

func (e validationError) Error() string { return string(e) }

// Is makes every validationError match ErrInvalid.
func (e validationError) Is(target error) bool {
	return target == ErrInvalid
}

// Invalidf builds a validation failure with a formatted message.
func Invalidf(format string, args ...any) error {
	return validationError(fmt.Sprintf(format, args...))
}

// Validation failures.
var (
	ErrEmptyPlayerName   = validationError("player name is required")
	ErrEmptyDescription  = validationError("description is required")
	ErrEmptySelection    = validationError("select at least one row")
	ErrMissingDate       = validationError("date is required")
	ErrNegativeAmount    = validationError("amount cannot be negative")
	ErrUnknownTimeSlot   = validationError("unknown time slot")
	ErrInvalidCourt      = validationError("court number is out of range")
	ErrInvalidPlayers    = validationError("number of players must be at least 1")
	ErrReservedDesc      = validationError("description is reserved for attendance, court booking and collection entries")
	ErrUnbalancedRecord  = validationError("balance must equal collection minus expense")
	ErrHeaderRowSelected = validationError("the header row cannot be selected")
)

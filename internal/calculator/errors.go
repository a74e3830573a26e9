package calculator

import "errors"

// Split precondition violations. All are caller errors; nothing is retried
// or corrected. Returned errors wrap these with the offending participant or
// line item, so check them with errors.Is.
var (
	ErrNoParticipants       = errors.New("at least one participant is required")
	ErrMissingAmount        = errors.New("missing explicit amount")
	ErrNegativeRemainder    = errors.New("explicit amounts exceed the total")
	ErrUnassignedItem       = errors.New("line item has no participants")
	ErrUnknownParticipant   = errors.New("unknown participant")
	ErrDuplicateParticipant = errors.New("duplicate participant")
	ErrConflictingAmount    = errors.New("remainder payer cannot have an explicit amount")
	ErrInvalidItem          = errors.New("invalid line item")
	ErrInvalidRate          = errors.New("invalid rate")
	ErrUnsupportedMode      = errors.New("unsupported split mode")
)

package consensus

import "errors"

// Errors returned by package-level helpers that validate construction
// arguments (ledger/config setup). The Step state machine itself never
// returns an error for ordinary operation — per the spec's error-handling
// design, malformed or stale events are absorbed as no-ops and surface (if
// at all) as a RecordEquivocation action; see invariant.go for the
// catastrophic, unreachable-by-construction cases that panic instead.
var (
	ErrNoValidators       = errors.New("consensus: voting power ledger has no validators")
	ErrDuplicateValidator = errors.New("consensus: duplicate validator id in ledger")
	ErrNonPositivePower   = errors.New("consensus: validator voting power must be positive")
	ErrEmptySchedule      = errors.New("consensus: stable-leader schedule must be non-empty")
	ErrUnknownScheduled   = errors.New("consensus: schedule references a validator not in the ledger")
	ErrAlreadyStarted     = errors.New("consensus: height already started")
	ErrNotStarted         = errors.New("consensus: height not started")
)

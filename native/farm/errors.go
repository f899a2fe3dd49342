package farm

import "errors"

var (
	ErrNilState               = errors.New("farm engine: state not configured")
	ErrNilLedger              = errors.New("farm engine: ledger not configured")
	ErrNotInitialised         = errors.New("farm engine: schedule not initialised")
	ErrAlreadyInitialised     = errors.New("farm engine: schedule already initialised")
	ErrInvalidAmount          = errors.New("farm engine: amount must be positive")
	ErrInsufficientStake      = errors.New("farm engine: withdraw exceeds staked amount")
	ErrInsufficientFunds      = errors.New("farm engine: insufficient stake token balance")
	ErrInvalidSchedule        = errors.New("farm engine: invalid emission schedule")
	ErrHeightBeforeCheckpoint = errors.New("farm engine: height precedes the accrual checkpoint")
	// ErrInvariantViolation signals that the custody reward balance cannot cover
	// a computed payout. It indicates broken accrual math or an underfunded
	// pool and is never silently truncated.
	ErrInvariantViolation = errors.New("farm engine: invariant violation")
)

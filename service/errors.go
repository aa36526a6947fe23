package service

import "errors"

// Domain error taxonomy. Services and repositories wrap these with context
// via fmt.Errorf and %w; callers classify with errors.Is.
var (
	// ErrValidation indicates malformed or out-of-range input
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a referenced raffle or ticket does not exist
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates an ownership mismatch
	ErrForbidden = errors.New("forbidden")

	// ErrCapacityExceeded indicates the raffle has insufficient remaining tickets
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrNumberSpaceExhausted indicates no ticket numbers remain in the
	// 100000-number space
	ErrNumberSpaceExhausted = errors.New("ticket number space exhausted")

	// ErrInvalidState indicates the operation is not valid for the current
	// raffle or ticket status
	ErrInvalidState = errors.New("invalid state")

	// ErrAlreadyProcessed indicates a payment confirmation retry for tickets
	// that already left the pending state
	ErrAlreadyProcessed = errors.New("already processed")

	// ErrAlreadyResolved indicates winner resolution already ran for the raffle
	ErrAlreadyResolved = errors.New("winner already resolved")

	// ErrLotteryUnavailable indicates the external lottery feed failed
	ErrLotteryUnavailable = errors.New("lottery feed unavailable")
)

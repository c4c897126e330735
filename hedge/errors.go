package hedge

import "errors"

// Configuration errors. These are surfaced synchronously at the point of
// misconfiguration, before any attempt is dispatched; the previous
// configuration is always left unchanged.
var (
	// ErrNegativeDelay is returned when a hedging delay is negative.
	ErrNegativeDelay = errors.New("hedge: delay must not be negative")

	// ErrUnknownOperation is returned when an operation kind outside the
	// fixed enumeration is supplied.
	ErrUnknownOperation = errors.New("hedge: unknown operation")

	// ErrInvalidMaxHedgedRequests is returned when the maximum number of
	// concurrently racing attempts is below one.
	ErrInvalidMaxHedgedRequests = errors.New("hedge: max hedged requests must be at least 1")
)

// Invariant violations. These signal a programming error in the calling
// layer rather than a failure of the underlying operation.
var (
	// ErrNilWork is returned when Do is called without a work function.
	ErrNilWork = errors.New("hedge: work function is required")

	// ErrNilTracker is returned when Do is called without a tracker.
	ErrNilTracker = errors.New("hedge: tracker is required")
)

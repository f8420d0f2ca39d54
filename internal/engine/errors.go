package engine

import "errors"

// Sentinel errors returned by engine operations.  Handlers translate these
// into HTTP status codes; the engine never builds user-facing text.
var (
	// ErrInvalidMonth is returned for months outside 1..12 or years that
	// cannot be a booking target.
	ErrInvalidMonth = errors.New("month must be between 1 and 12")

	// ErrInvalidSeat is returned for seat numbers below 1 or above the
	// configured total.
	ErrInvalidSeat = errors.New("invalid seat number")

	// ErrInvalidShiftType is returned when a shift is not one of morning,
	// afternoon or night.
	ErrInvalidShiftType = errors.New("invalid shift type")

	// ErrNoShifts is returned when an operation receives an empty shift set.
	ErrNoShifts = errors.New("at least one shift type is required")

	// ErrMissingPaymentRef is returned when BookShifts is called without a
	// payment reference.
	ErrMissingPaymentRef = errors.New("payment reference is required")

	// ErrShiftUnavailable is returned when any requested shift is blocked,
	// booked, protected by another user, or lost to a concurrent claim.
	ErrShiftUnavailable = errors.New("shift is not available")

	// ErrShiftAlreadyBooked is returned when an admin attempts to block a
	// shift that has an active booking.
	ErrShiftAlreadyBooked = errors.New("shift is already booked")

	// ErrTooManyMonths is returned when a protection request targets more
	// than three months.
	ErrTooManyMonths = errors.New("at most 3 months can be protected at once")

	// ErrProtectionWindowClosed is returned when the configured manual
	// protection window has not opened yet.
	ErrProtectionWindowClosed = errors.New("protection window is not open yet")

	// ErrNotFound is returned when a referenced booking does not exist.
	ErrNotFound = errors.New("not found")
)

package model

import "time"

// Shift status labels used by the month grid projection.  These mirror the
// resolver's decision: a shift is exactly one of available, booked,
// protected or blocked.
const (
	StatusAvailable = "available"
	StatusBooked    = "booked"
	StatusProtected = "protected"
	StatusBlocked   = "blocked"
)

// ShiftView is the decorated state of one shift inside the month grid.  It
// carries whichever claim won the precedence merge; all other pointers stay
// nil.  The projection has no write authority.
type ShiftView struct {
	ShiftType           ShiftType  `json:"shift_type"`
	Status              string     `json:"status"`
	UserID              *uint64    `json:"user_id,omitempty"`
	BookedAt            *time.Time `json:"booked_at,omitempty"`
	BlockedByAdmin      bool       `json:"blocked_by_admin"`
	ProtectedForUser    *uint64    `json:"protected_for_user,omitempty"`
	ProtectedAt         *time.Time `json:"protected_at,omitempty"`
	ProtectionExpiresAt *time.Time `json:"protection_expires_at,omitempty"`
}

// SeatMonth is one seat's three shifts for a month, resolved for display.
// Seats without any persisted claim are still emitted with every shift
// available; absence of data means availability by definition.
type SeatMonth struct {
	SeatNumber int         `json:"seat_number"`
	Month      int         `json:"month"`
	Year       int         `json:"year"`
	Shifts     []ShiftView `json:"shifts"`
}

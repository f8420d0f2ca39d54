package model

import "time"

// Protection is a time-boxed hold on a future month's shift for one user.
// Protections are normalized to one record per shift type because expiry and
// conversion are evaluated per shift and must not be coupled.  A protection
// is live while Converted is false and ExpiresAt lies in the future; once
// the deadline passes the record is logically inert even before the reaper
// marks it resolved.
//
// Conversion and expiry share the Converted terminal flag, distinguished
// only by whether a matching booking exists (same behaviour as the ledgers
// this replaces).
//
// Fields:
//  ID          – primary key identifier.
//  SeatNumber  – seat being protected.
//  Month       – calendar month (1-12) the protection applies to.
//  Year        – calendar year the protection applies to.
//  Shift       – the single shift type this record protects.
//  UserID      – holder of the protection.
//  ProtectedAt – when the protection was created.
//  ExpiresAt   – day 3 of the protected month, 23:59:59.
//  Converted   – terminal resolved flag (converted to booking, or expired).
type Protection struct {
	ID          uint64    `json:"id"`
	SeatNumber  int       `json:"seat_number"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	Shift       ShiftType `json:"shift_type"`
	UserID      uint64    `json:"user_id"`
	ProtectedAt time.Time `json:"protected_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Converted   bool      `json:"converted_to_booking"`
}

// Live reports whether the protection still holds its claim at the given
// instant.
func (p *Protection) Live(now time.Time) bool {
	return !p.Converted && p.ExpiresAt.After(now)
}

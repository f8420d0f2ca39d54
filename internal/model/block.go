package model

import "time"

// Block is an administrative veto on a single shift.  A live block takes
// precedence over protections and prevents new bookings; it can never be
// created over a shift that already has an active booking.  Like
// protections, blocks are stored one record per shift type.
//
// Fields:
//  ID         – primary key identifier.
//  SeatNumber – seat being blocked.
//  Month      – calendar month (1-12).
//  Year       – calendar year.
//  Shift      – the single shift type this record blocks.
//  BlockedBy  – admin who created the block.
//  BlockedAt  – when the block was created.
//  IsBlocked  – false once the shift has been unblocked.
type Block struct {
	ID         uint64    `json:"id"`
	SeatNumber int       `json:"seat_number"`
	Month      int       `json:"month"`
	Year       int       `json:"year"`
	Shift      ShiftType `json:"shift_type"`
	BlockedBy  uint64    `json:"blocked_by"`
	BlockedAt  time.Time `json:"blocked_at"`
	IsBlocked  bool      `json:"is_blocked"`
}

package model

import "time"

// Booking status values.  Bookings are never physically deleted; a
// cancellation flips the status and releases the per-shift claim rows.
const (
	BookingActive    = "active"
	BookingCancelled = "cancelled"
)

// Booking represents a confirmed, paid reservation of one or more shifts on
// a seat for a calendar month.  This struct corresponds to a row in the
// `bookings` table; the individual shift claims live in `booking_shifts`
// with one row per shift type.
//
// Fields:
//  ID         – primary key identifier.
//  SeatNumber – seat being booked.
//  Month      – calendar month (1-12).
//  Year       – calendar year.
//  ShiftTypes – shifts covered by this booking.
//  UserID     – owner of the booking.
//  PaymentRef – opaque reference handed over by the payment collaborator.
//  Status     – active or cancelled.
//  BookedAt   – when the booking was created.
type Booking struct {
	ID         uint64      `json:"id"`
	SeatNumber int         `json:"seat_number"`
	Month      int         `json:"month"`
	Year       int         `json:"year"`
	ShiftTypes []ShiftType `json:"shift_types"`
	UserID     uint64      `json:"user_id"`
	PaymentRef string      `json:"payment_ref"`
	Status     string      `json:"status"`
	BookedAt   time.Time   `json:"booked_at"`
}

// Covers reports whether the booking includes the given shift type.
func (b *Booking) Covers(shift ShiftType) bool {
	for _, s := range b.ShiftTypes {
		if s == shift {
			return true
		}
	}
	return false
}

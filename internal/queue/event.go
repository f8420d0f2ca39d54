// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a seat booking is successfully
// created.  It carries enough information for downstream consumers to log,
// notify or feed analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID     uint64   `json:"booking_id"`
	UserID        uint64   `json:"user_id"`
	SeatNumber    int      `json:"seat_number"`
	Month         int      `json:"month"`
	Year          int      `json:"year"`
	ShiftTypes    []string `json:"shift_types"`
	PaymentRef    string   `json:"payment_ref"`
	AutoProtected bool     `json:"auto_protected"`
	BookedAt      string   `json:"booked_at"`
}

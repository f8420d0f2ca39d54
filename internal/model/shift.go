package model

// ShiftType identifies one of the three fixed daily time blocks a seat is
// divided into.  The enum is closed: exactly morning, afternoon and night
// exist, matching the `shift_type` columns across all three ledgers.
type ShiftType string

const (
	ShiftMorning   ShiftType = "morning"   // opening until early afternoon
	ShiftAfternoon ShiftType = "afternoon" // early afternoon until evening
	ShiftNight     ShiftType = "night"     // evening until close
)

// AllShiftTypes returns the three shift types in display order.  The grid
// read model iterates this slice so every seat always exposes all shifts.
func AllShiftTypes() []ShiftType {
	return []ShiftType{ShiftMorning, ShiftAfternoon, ShiftNight}
}

// Valid reports whether s is one of the three known shift types.
func (s ShiftType) Valid() bool {
	switch s {
	case ShiftMorning, ShiftAfternoon, ShiftNight:
		return true
	}
	return false
}

// ShiftKey is the (seat, month, year, shift) tuple identifying a single
// claimable unit.  All three ledgers key their claims by this tuple and the
// storage layer enforces at most one live claim per key per ledger.
//
// Fields:
//  SeatNumber – seat number, 1..N where N is fixed by deployment.
//  Month      – calendar month, 1..12.
//  Year       – four digit year.
//  Shift      – the shift type within the day.
type ShiftKey struct {
	SeatNumber int
	Month      int
	Year       int
	Shift      ShiftType
}

package engine

import (
	"context"
	"time"

	"github.com/dikshantyadav2006/library-seat-backend/internal/clock"
	"github.com/dikshantyadav2006/library-seat-backend/internal/model"
)

// Resolution is the outcome of resolving one shift key.  Status is one of
// the model.Status* labels; exactly one of Booking, Protection or Block is
// set unless the shift is available.
type Resolution struct {
	Status     string
	Booking    *model.Booking
	Protection *model.Protection
	Block      *model.Block
}

// Resolver answers "who holds this shift" by merging the three ledgers in
// strict precedence order.  It is a pure read: no method mutates anything.
type Resolver struct {
	bookings    BookingStore
	protections ProtectionStore
	blocks      BlockStore
	clk         clock.Clock
}

// NewResolver constructs a Resolver over the three ledgers.
func NewResolver(b BookingStore, p ProtectionStore, bl BlockStore, clk clock.Clock) *Resolver {
	if b == nil || p == nil || bl == nil || clk == nil {
		panic("nil dependency passed to NewResolver")
	}
	return &Resolver{bookings: b, protections: p, blocks: bl, clk: clk}
}

// resolveClaims applies the precedence rules to claims already fetched for
// one shift key.  Shared between Resolve and the month grid so both can
// never disagree.  requestingUser 0 means anonymous.
//
// Precedence, first match wins:
//  1. live Block           -> blocked
//  2. active Booking       -> booked
//  3. live Protection      -> available to its holder, protected to others
//  4. otherwise            -> available
func resolveClaims(block *model.Block, booking *model.Booking, protection *model.Protection, requestingUser uint64, now time.Time) Resolution {
	if block != nil && block.IsBlocked {
		return Resolution{Status: model.StatusBlocked, Block: block}
	}
	if booking != nil && booking.Status == model.BookingActive {
		return Resolution{Status: model.StatusBooked, Booking: booking}
	}
	if protection != nil && protection.Live(now) {
		if requestingUser != 0 && protection.UserID == requestingUser {
			return Resolution{Status: model.StatusAvailable}
		}
		return Resolution{Status: model.StatusProtected, Protection: protection}
	}
	return Resolution{Status: model.StatusAvailable}
}

// Resolve returns the current state of one shift key.  requestingUser may
// be 0 for anonymous callers; a non-zero requester sees their own live
// protection as available.
func (r *Resolver) Resolve(ctx context.Context, key model.ShiftKey, requestingUser uint64) (Resolution, error) {
	if key.Month < 1 || key.Month > 12 {
		return Resolution{}, ErrInvalidMonth
	}
	if !key.Shift.Valid() {
		return Resolution{}, ErrInvalidShiftType
	}
	now := r.clk.Now()

	block, err := r.blocks.LiveByShift(ctx, key)
	if err != nil {
		return Resolution{}, err
	}
	if block != nil {
		return resolveClaims(block, nil, nil, requestingUser, now), nil
	}
	booking, err := r.bookings.ActiveByShift(ctx, key)
	if err != nil {
		return Resolution{}, err
	}
	if booking != nil {
		return resolveClaims(nil, booking, nil, requestingUser, now), nil
	}
	protection, err := r.protections.LiveByShift(ctx, key, now)
	if err != nil {
		return Resolution{}, err
	}
	return resolveClaims(nil, nil, protection, requestingUser, now), nil
}

// ShiftsAvailable reports whether every shift in the set resolves to
// available for the given user.  There is no partial answer: one held
// shift makes the whole set unavailable.
func (r *Resolver) ShiftsAvailable(ctx context.Context, seat, month, year int, shifts []model.ShiftType, userID uint64) (bool, error) {
	if len(shifts) == 0 {
		return false, ErrNoShifts
	}
	for _, shift := range shifts {
		res, err := r.Resolve(ctx, model.ShiftKey{SeatNumber: seat, Month: month, Year: year, Shift: shift}, userID)
		if err != nil {
			return false, err
		}
		if res.Status != model.StatusAvailable {
			return false, nil
		}
	}
	return true, nil
}

// validateShifts checks a shift set for emptiness, duplicates and unknown
// values, returning the deduplicated set.
func validateShifts(shifts []model.ShiftType) ([]model.ShiftType, error) {
	if len(shifts) == 0 {
		return nil, ErrNoShifts
	}
	seen := make(map[model.ShiftType]struct{}, len(shifts))
	out := make([]model.ShiftType, 0, len(shifts))
	for _, s := range shifts {
		if !s.Valid() {
			return nil, ErrInvalidShiftType
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

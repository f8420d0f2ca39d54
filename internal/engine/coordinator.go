package engine

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/dikshantyadav2006/library-seat-backend/internal/clock"
	"github.com/dikshantyadav2006/library-seat-backend/internal/model"
	"github.com/dikshantyadav2006/library-seat-backend/internal/repository"
)

// BookingResult is returned by BookShifts.  AutoProtected reports whether
// the best-effort next-month protection was created; when true,
// ProtectedMonth/ProtectedYear identify the protected month and
// ProtectionExpiresAt its deadline.
type BookingResult struct {
	Booking             *model.Booking
	AutoProtected       bool
	ProtectedMonth      int
	ProtectedYear       int
	ProtectionExpiresAt time.Time
}

// Coordinator orchestrates multi-shift, all-or-nothing bookings.  It is the
// only way bookings are created: the payment collaborator calls BookShifts
// after a transaction has externally succeeded, handing over the verified
// payment reference.
type Coordinator struct {
	bookings    BookingStore
	protections ProtectionStore
	resolver    *Resolver
	clk         clock.Clock
	loc         *time.Location
	totalSeats  int
}

// NewCoordinator constructs a Coordinator.  loc is the location protection
// deadlines are computed in (nil means UTC); totalSeats bounds valid seat
// numbers (0 disables the upper bound).
func NewCoordinator(b BookingStore, p ProtectionStore, r *Resolver, clk clock.Clock, loc *time.Location, totalSeats int) *Coordinator {
	if b == nil || p == nil || r == nil || clk == nil {
		panic("nil dependency passed to NewCoordinator")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Coordinator{bookings: b, protections: p, resolver: r, clk: clk, loc: loc, totalSeats: totalSeats}
}

// validateSeat checks a seat number against the configured bounds.
func (c *Coordinator) validateSeat(seat int) error {
	if seat < 1 || (c.totalSeats > 0 && seat > c.totalSeats) {
		return ErrInvalidSeat
	}
	return nil
}

// BookShifts books the given shifts for userID as one all-or-nothing unit.
//
// The availability check and the claim are not a check-then-act pair: the
// storage layer's unique claim key is the arbiter.  The pre-check only
// produces a friendlier rejection; a racing writer that slips past it
// surfaces as repository.ErrDuplicateClaim from CreateActive, after which
// the whole sequence is retried once and then reported unavailable.
//
// After a successful claim the caller's matching protections on the booked
// month are marked converted, and a protection for the same seat and shifts
// in the following month is created best-effort.  Auto-protection failure
// never rolls the booking back; it is reported through the result flag.
func (c *Coordinator) BookShifts(ctx context.Context, seat, month, year int, shifts []model.ShiftType, userID uint64, paymentRef string) (*BookingResult, error) {
	if err := c.validateSeat(seat); err != nil {
		return nil, err
	}
	if month < 1 || month > 12 {
		return nil, ErrInvalidMonth
	}
	if paymentRef == "" {
		return nil, ErrMissingPaymentRef
	}
	shifts, err := validateShifts(shifts)
	if err != nil {
		return nil, err
	}

	booking, err := c.claimWithRetry(ctx, seat, month, year, shifts, userID, paymentRef)
	if err != nil {
		return nil, err
	}

	// Conversion is idempotent; a missing protection is not an error.
	if _, err := c.protections.MarkConverted(ctx, seat, month, year, shifts, userID); err != nil {
		log.Printf("engine: mark protections converted failed for booking %d: %v", booking.ID, err)
	}

	result := &BookingResult{Booking: booking}
	c.autoProtectNextMonth(ctx, booking, result)
	return result, nil
}

// claimWithRetry runs the availability pre-check plus atomic claim, retrying
// the whole sequence exactly once when the claim loses a storage race.
func (c *Coordinator) claimWithRetry(ctx context.Context, seat, month, year int, shifts []model.ShiftType, userID uint64, paymentRef string) (*model.Booking, error) {
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := c.resolver.ShiftsAvailable(ctx, seat, month, year, shifts, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrShiftUnavailable
		}
		b := &model.Booking{
			SeatNumber: seat,
			Month:      month,
			Year:       year,
			ShiftTypes: shifts,
			UserID:     userID,
			PaymentRef: paymentRef,
		}
		err = c.bookings.CreateActive(ctx, b)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, repository.ErrDuplicateClaim) {
			return nil, err
		}
		// Lost the race.  A stale protection row can also collide here, so
		// one retry after re-checking availability distinguishes "held by a
		// winner" from "claim key needs a sweep".
	}
	return nil, ErrShiftUnavailable
}

// autoProtectNextMonth creates the keep-my-seat protection for the month
// after a fresh booking.  Best effort: every failure path only logs and
// leaves result.AutoProtected false.
func (c *Coordinator) autoProtectNextMonth(ctx context.Context, booking *model.Booking, result *BookingResult) {
	nextMonth, nextYear := clock.NextMonth(booking.Month, booking.Year)
	ok, err := c.resolver.ShiftsAvailable(ctx, booking.SeatNumber, nextMonth, nextYear, booking.ShiftTypes, booking.UserID)
	if err != nil || !ok {
		if err != nil {
			log.Printf("engine: auto-protection availability check failed for booking %d: %v", booking.ID, err)
		}
		return
	}

	deadline := clock.ProtectionDeadline(nextMonth, nextYear, c.loc)
	now := c.clk.Now()
	created := make([]*model.Protection, 0, len(booking.ShiftTypes))
	var resolved []uint64
	for _, shift := range booking.ShiftTypes {
		key := model.ShiftKey{SeatNumber: booking.SeatNumber, Month: nextMonth, Year: nextYear, Shift: shift}
		ids, err := c.protections.ResolveStale(ctx, key, booking.UserID, now)
		if err != nil {
			log.Printf("engine: auto-protection stale sweep failed for booking %d: %v", booking.ID, err)
			c.compensateProtections(ctx, created, resolved)
			return
		}
		resolved = append(resolved, ids...)
		p := &model.Protection{
			SeatNumber: booking.SeatNumber,
			Month:      nextMonth,
			Year:       nextYear,
			Shift:      shift,
			UserID:     booking.UserID,
			ExpiresAt:  deadline,
		}
		if err := c.protections.CreateLive(ctx, p); err != nil {
			log.Printf("engine: auto-protection claim failed for booking %d shift %s: %v", booking.ID, shift, err)
			c.compensateProtections(ctx, created, resolved)
			return
		}
		created = append(created, p)
	}

	result.AutoProtected = true
	result.ProtectedMonth = nextMonth
	result.ProtectedYear = nextYear
	result.ProtectionExpiresAt = deadline
}

// compensateProtections undoes a failed auto-protection batch: the batch's
// fresh claims are deleted, then any claims the batch resolved (typically
// the user's own manual holds on the next month) are reinstated so the
// user keeps whatever hold they had before the booking.
func (c *Coordinator) compensateProtections(ctx context.Context, created []*model.Protection, resolved []uint64) {
	for _, p := range created {
		if err := c.protections.Delete(ctx, p.ID); err != nil {
			log.Printf("engine: compensating protection %d failed: %v", p.ID, err)
		}
	}
	if err := c.protections.Restore(ctx, resolved); err != nil {
		log.Printf("engine: restoring resolved protections %v failed: %v", resolved, err)
	}
}

// CancelBooking flips an active booking to cancelled and releases its shift
// claims.  Returns ErrNotFound when no active booking with the ID exists.
func (c *Coordinator) CancelBooking(ctx context.Context, id uint64) error {
	err := c.bookings.Cancel(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// BookingsForUser lists a user's bookings, newest month first.
func (c *Coordinator) BookingsForUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return c.bookings.ByUser(ctx, userID)
}

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dikshantyadav2006/library-seat-backend/internal/clock"
	"github.com/dikshantyadav2006/library-seat-backend/internal/model"
)

// Grid is the month × seats × shifts read model.  It has no write
// authority: every shift status comes from the same precedence function the
// resolver uses, fed by three month-scoped ledger queries.  Seats with no
// persisted claim are still emitted fully available.
//
// When a redis client is supplied, whole-month projections are cached for
// a short TTL under seatgrid:<year>:<month>; every successful write path
// calls Invalidate.  A nil client disables caching entirely.
type Grid struct {
	bookings    BookingStore
	protections ProtectionStore
	blocks      BlockStore
	clk         clock.Clock
	cache       *redis.Client
	cacheTTL    time.Duration
}

// NewGrid constructs a Grid.  cache may be nil.
func NewGrid(b BookingStore, p ProtectionStore, bl BlockStore, clk clock.Clock, cache *redis.Client, cacheTTL time.Duration) *Grid {
	if b == nil || p == nil || bl == nil || clk == nil {
		panic("nil dependency passed to NewGrid")
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &Grid{bookings: b, protections: p, blocks: bl, clk: clk, cache: cache, cacheTTL: cacheTTL}
}

func gridCacheKey(month, year int) string {
	return fmt.Sprintf("seatgrid:%d:%d", year, month)
}

// SeatsForMonth returns the resolved state of every seat 1..totalSeats for
// a month.  requestingUser may be 0 for anonymous callers; a non-zero
// requester sees their own live protections as available, so only the
// anonymous projection is served from and written to the cache.
func (g *Grid) SeatsForMonth(ctx context.Context, month, year, totalSeats int, requestingUser uint64) ([]model.SeatMonth, error) {
	if month < 1 || month > 12 {
		return nil, ErrInvalidMonth
	}
	if totalSeats < 1 {
		return nil, ErrInvalidSeat
	}

	if g.cache != nil && requestingUser == 0 {
		if raw, err := g.cache.Get(ctx, gridCacheKey(month, year)).Bytes(); err == nil {
			var cached []model.SeatMonth
			if json.Unmarshal(raw, &cached) == nil && len(cached) == totalSeats {
				return cached, nil
			}
		}
	}

	now := g.clk.Now()
	bookings, err := g.bookings.ActiveForMonth(ctx, month, year)
	if err != nil {
		return nil, err
	}
	protections, err := g.protections.LiveForMonth(ctx, month, year, now)
	if err != nil {
		return nil, err
	}
	blocks, err := g.blocks.LiveForMonth(ctx, month, year)
	if err != nil {
		return nil, err
	}

	claims := indexClaims(bookings, protections, blocks)
	seats := make([]model.SeatMonth, 0, totalSeats)
	for seat := 1; seat <= totalSeats; seat++ {
		seats = append(seats, buildSeatMonth(seat, month, year, claims, requestingUser, now))
	}

	if g.cache != nil && requestingUser == 0 {
		if raw, err := json.Marshal(seats); err == nil {
			_ = g.cache.Set(ctx, gridCacheKey(month, year), raw, g.cacheTTL).Err()
		}
	}
	return seats, nil
}

// SeatDetails returns the resolved state of one seat for a month.
// requestingUser follows the same rule as SeatsForMonth.
func (g *Grid) SeatDetails(ctx context.Context, seat, month, year int, requestingUser uint64) (*model.SeatMonth, error) {
	if month < 1 || month > 12 {
		return nil, ErrInvalidMonth
	}
	if seat < 1 {
		return nil, ErrInvalidSeat
	}
	now := g.clk.Now()
	bookings, err := g.bookings.ActiveForSeat(ctx, seat, month, year)
	if err != nil {
		return nil, err
	}
	protections, err := g.protections.LiveForSeat(ctx, seat, month, year, now)
	if err != nil {
		return nil, err
	}
	blocks, err := g.blocks.LiveForSeat(ctx, seat, month, year)
	if err != nil {
		return nil, err
	}
	sm := buildSeatMonth(seat, month, year, indexClaims(bookings, protections, blocks), requestingUser, now)
	return &sm, nil
}

// Invalidate drops the cached projection for a month.  Called by handlers
// after any successful write touching that month.
func (g *Grid) Invalidate(ctx context.Context, month, year int) {
	if g.cache == nil {
		return
	}
	_ = g.cache.Del(ctx, gridCacheKey(month, year)).Err()
}

// claimIndex holds the month's claims keyed by shift for constant-time
// lookup while decorating.
type claimIndex struct {
	bookings    map[model.ShiftKey]*model.Booking
	protections map[model.ShiftKey]*model.Protection
	blocks      map[model.ShiftKey]*model.Block
}

func indexClaims(bookings []model.Booking, protections []model.Protection, blocks []model.Block) claimIndex {
	idx := claimIndex{
		bookings:    make(map[model.ShiftKey]*model.Booking),
		protections: make(map[model.ShiftKey]*model.Protection),
		blocks:      make(map[model.ShiftKey]*model.Block),
	}
	for i := range bookings {
		b := &bookings[i]
		for _, shift := range b.ShiftTypes {
			idx.bookings[model.ShiftKey{SeatNumber: b.SeatNumber, Month: b.Month, Year: b.Year, Shift: shift}] = b
		}
	}
	for i := range protections {
		p := &protections[i]
		idx.protections[model.ShiftKey{SeatNumber: p.SeatNumber, Month: p.Month, Year: p.Year, Shift: p.Shift}] = p
	}
	for i := range blocks {
		b := &blocks[i]
		idx.blocks[model.ShiftKey{SeatNumber: b.SeatNumber, Month: b.Month, Year: b.Year, Shift: b.Shift}] = b
	}
	return idx
}

func buildSeatMonth(seat, month, year int, claims claimIndex, requestingUser uint64, now time.Time) model.SeatMonth {
	sm := model.SeatMonth{SeatNumber: seat, Month: month, Year: year}
	for _, shift := range model.AllShiftTypes() {
		key := model.ShiftKey{SeatNumber: seat, Month: month, Year: year, Shift: shift}
		res := resolveClaims(claims.blocks[key], claims.bookings[key], claims.protections[key], requestingUser, now)
		view := model.ShiftView{ShiftType: shift, Status: res.Status}
		switch res.Status {
		case model.StatusBlocked:
			view.BlockedByAdmin = true
		case model.StatusBooked:
			view.UserID = &res.Booking.UserID
			t := res.Booking.BookedAt
			view.BookedAt = &t
		case model.StatusProtected:
			view.ProtectedForUser = &res.Protection.UserID
			pa := res.Protection.ProtectedAt
			ex := res.Protection.ExpiresAt
			view.ProtectedAt = &pa
			view.ProtectionExpiresAt = &ex
		}
		sm.Shifts = append(sm.Shifts, view)
	}
	return sm
}

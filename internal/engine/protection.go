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

// TargetMonth names one calendar month a protection request applies to.
type TargetMonth struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// ProtectionManager creates and renews protection claims.  Why a protection
// is requested (keeping a seat after a booking, or a manual hold) is caller
// context; the manager only enforces availability, the per-user exclusivity
// of live claims, and the configured manual window policy.
type ProtectionManager struct {
	protections ProtectionStore
	resolver    *Resolver
	clk         clock.Clock
	loc         *time.Location
	totalSeats  int

	// windowDays is the manual protection window policy: 0 allows
	// protection at any time, N > 0 restricts manual protection to the
	// last N days of the current month.
	windowDays int
}

// NewProtectionManager constructs a ProtectionManager.  See
// ProtectionManager for the meaning of windowDays; loc nil means UTC.
func NewProtectionManager(p ProtectionStore, r *Resolver, clk clock.Clock, loc *time.Location, totalSeats, windowDays int) *ProtectionManager {
	if p == nil || r == nil || clk == nil {
		panic("nil dependency passed to NewProtectionManager")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ProtectionManager{protections: p, resolver: r, clk: clk, loc: loc, totalSeats: totalSeats, windowDays: windowDays}
}

// WindowOpen reports whether the manual protection window is open right
// now, along with how many days remain in the current month.
func (m *ProtectionManager) WindowOpen() (bool, int) {
	remaining := clock.DaysRemaining(m.clk.Now().In(m.loc))
	if m.windowDays <= 0 {
		return true, remaining
	}
	// remaining excludes today, so remaining < windowDays means today is
	// one of the last windowDays days of the month.
	return remaining < m.windowDays, remaining
}

// ProtectShifts protects the given shifts on one seat for up to three
// target months.  All-or-nothing across the whole call: if any shift of any
// target month is unavailable or loses its claim race, every claim this
// call created is removed and every claim it resolved is reinstated, so a
// failed call leaves the ledger exactly as it found it.
//
// Renewing one's own protection is an idempotent upsert: stale claims held
// by this user (or expired ones left behind by anyone) are resolved before
// the fresh insert, so repeating the call yields exactly one live claim per
// shift.
func (m *ProtectionManager) ProtectShifts(ctx context.Context, seat int, months []TargetMonth, shifts []model.ShiftType, userID uint64) ([]model.Protection, error) {
	if seat < 1 || (m.totalSeats > 0 && seat > m.totalSeats) {
		return nil, ErrInvalidSeat
	}
	if len(months) == 0 {
		return nil, ErrInvalidMonth
	}
	if len(months) > 3 {
		return nil, ErrTooManyMonths
	}
	for _, tm := range months {
		if tm.Month < 1 || tm.Month > 12 {
			return nil, ErrInvalidMonth
		}
	}
	shifts, err := validateShifts(shifts)
	if err != nil {
		return nil, err
	}
	if open, _ := m.WindowOpen(); !open {
		return nil, ErrProtectionWindowClosed
	}

	now := m.clk.Now()
	var (
		created  []*model.Protection
		resolved []uint64
	)
	for _, tm := range months {
		ok, err := m.resolver.ShiftsAvailable(ctx, seat, tm.Month, tm.Year, shifts, userID)
		if err != nil {
			m.compensate(ctx, created, resolved)
			return nil, err
		}
		if !ok {
			m.compensate(ctx, created, resolved)
			return nil, ErrShiftUnavailable
		}
		deadline := clock.ProtectionDeadline(tm.Month, tm.Year, m.loc)
		for _, shift := range shifts {
			key := model.ShiftKey{SeatNumber: seat, Month: tm.Month, Year: tm.Year, Shift: shift}
			ids, err := m.protections.ResolveStale(ctx, key, userID, now)
			if err != nil {
				m.compensate(ctx, created, resolved)
				return nil, err
			}
			resolved = append(resolved, ids...)
			p := &model.Protection{
				SeatNumber: seat,
				Month:      tm.Month,
				Year:       tm.Year,
				Shift:      shift,
				UserID:     userID,
				ExpiresAt:  deadline,
			}
			if err := m.protections.CreateLive(ctx, p); err != nil {
				m.compensate(ctx, created, resolved)
				if errors.Is(err, repository.ErrDuplicateClaim) {
					return nil, ErrShiftUnavailable
				}
				return nil, err
			}
			created = append(created, p)
		}
	}

	out := make([]model.Protection, len(created))
	for i, p := range created {
		out[i] = *p
	}
	return out, nil
}

// compensate undoes a failed batch: claims the batch created are deleted,
// then claims the batch resolved (a renewal's own prior holds, or expired
// rows swept ahead of an insert) are reinstated.  Deletion runs first so
// the claim keys are free again before the restore.
func (m *ProtectionManager) compensate(ctx context.Context, created []*model.Protection, resolved []uint64) {
	for _, p := range created {
		if err := m.protections.Delete(ctx, p.ID); err != nil {
			log.Printf("engine: compensating protection %d failed: %v", p.ID, err)
		}
	}
	if err := m.protections.Restore(ctx, resolved); err != nil {
		log.Printf("engine: restoring resolved protections %v failed: %v", resolved, err)
	}
}

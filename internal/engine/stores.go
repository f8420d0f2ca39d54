// Package engine contains the seat-shift reservation core: the availability
// resolver, the reservation coordinator, the protection manager, the block
// manager, the expiry reaper and the month grid projection.  The engine
// never talks HTTP and never produces presentation strings; handlers map
// its sentinel errors to responses.
//
// All mutable state lives behind the three store interfaces below, which
// the repository package implements on MySQL and the tests implement in
// memory.  The single correctness hinge is that CreateActive and CreateLive
// are atomic with respect to per-shift uniqueness: a losing concurrent
// writer must receive repository.ErrDuplicateClaim, never overwrite a
// winner.
package engine

import (
	"context"
	"time"

	"github.com/dikshantyadav2006/library-seat-backend/internal/model"
)

// BookingStore is the bookings ledger as seen by the engine.
type BookingStore interface {
	// CreateActive atomically claims every shift in b or none of them,
	// returning repository.ErrDuplicateClaim when any shift is already
	// actively booked.
	CreateActive(ctx context.Context, b *model.Booking) error
	// ActiveByShift returns the active booking holding key, or nil.
	ActiveByShift(ctx context.Context, key model.ShiftKey) (*model.Booking, error)
	// ActiveForMonth returns all active bookings in a month.
	ActiveForMonth(ctx context.Context, month, year int) ([]model.Booking, error)
	// ActiveForSeat returns the active bookings for one seat in a month.
	ActiveForSeat(ctx context.Context, seat, month, year int) ([]model.Booking, error)
	// ByUser returns a user's bookings, newest month first.
	ByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	// Cancel flips an active booking to cancelled and releases its claims.
	Cancel(ctx context.Context, id uint64) error
}

// ProtectionStore is the protections ledger as seen by the engine.
type ProtectionStore interface {
	// CreateLive atomically claims one shift, returning
	// repository.ErrDuplicateClaim when another live protection holds it.
	CreateLive(ctx context.Context, p *model.Protection) error
	// LiveByShift returns the live, unexpired protection for key, or nil.
	LiveByShift(ctx context.Context, key model.ShiftKey, now time.Time) (*model.Protection, error)
	// LiveForMonth returns all live, unexpired protections in a month.
	LiveForMonth(ctx context.Context, month, year int, now time.Time) ([]model.Protection, error)
	// LiveForSeat returns the live, unexpired protections on one seat.
	LiveForSeat(ctx context.Context, seat, month, year int, now time.Time) ([]model.Protection, error)
	// ResolveStale resolves expired claims on key, plus any claim held by
	// userID, ahead of a fresh insert.  It returns the IDs of the rows it
	// resolved so a failed batch can hand them back to Restore.
	ResolveStale(ctx context.Context, key model.ShiftKey, userID uint64, now time.Time) ([]uint64, error)
	// Restore reinstates previously resolved rows as live claims.  Only
	// used when compensating a failed batch, after the batch's own inserts
	// have been deleted.
	Restore(ctx context.Context, ids []uint64) error
	// MarkConverted resolves the user's live protections on the given
	// shifts; idempotent.
	MarkConverted(ctx context.Context, seat, month, year int, shifts []model.ShiftType, userID uint64) (int64, error)
	// ReleaseExpired resolves every live protection past its deadline.
	ReleaseExpired(ctx context.Context, now time.Time) (int64, error)
	// Delete removes a protection row; used only for batch compensation.
	Delete(ctx context.Context, id uint64) error
}

// BlockStore is the blocked_seats ledger as seen by the engine.
type BlockStore interface {
	// Upsert creates or refreshes the live block for b's shift key.
	Upsert(ctx context.Context, b *model.Block) error
	// LiveByShift returns the live block for key, or nil.
	LiveByShift(ctx context.Context, key model.ShiftKey) (*model.Block, error)
	// LiveForMonth returns all live blocks in a month.
	LiveForMonth(ctx context.Context, month, year int) ([]model.Block, error)
	// LiveForSeat returns the live blocks on one seat for a month.
	LiveForSeat(ctx context.Context, seat, month, year int) ([]model.Block, error)
	// Unblock lifts the blocks on the given shifts.
	Unblock(ctx context.Context, seat, month, year int, shifts []model.ShiftType) (int64, error)
}

//go:build integration

// Integration tests exercising the real MySQL claim semantics, in
// particular the NULL-unique live column that arbitrates concurrent
// claims.  They need a migrated database (migrations/schema.sql) and the
// usual DB_* environment variables:
//
//	go test -tags integration ./internal/repository/
package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/dikshantyadav2006/library-seat-backend/internal/database"
	"github.com/dikshantyadav2006/library-seat-backend/internal/model"
)

func testDB(t *testing.T) *BookingRepo {
	t.Helper()
	host := os.Getenv("DB_HOST")
	if host == "" {
		t.Skip("DB_HOST not set")
	}
	db, err := database.Open(os.Getenv("DB_USER"), os.Getenv("DB_PASS"), host, os.Getenv("DB_PORT"), os.Getenv("DB_NAME"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBookingRepo(db)
}

// seedUser inserts a throwaway user and returns its ID.  Claim tables carry
// foreign keys to users, so every test needs one.
func seedUser(t *testing.T, r *BookingRepo) uint64 {
	t.Helper()
	suffix := time.Now().UnixNano()
	users := NewUserRepo(r.DB())
	id, err := users.Create(context.Background(),
		fmt.Sprintf("it-%d@example.com", suffix),
		fmt.Sprintf("it-%d", suffix),
		"Integration Test", "password123", model.RoleMember, 4)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

// testSeat returns a seat number unlikely to collide across test runs
// sharing a database.  Seat bounds are enforced in the engine, not here.
func testSeat() int {
	return int(time.Now().UnixNano()%100000) + 1000
}

func TestBookingClaimConflict(t *testing.T) {
	r := testDB(t)
	userID := seedUser(t, r)
	ctx := context.Background()
	seat := testSeat()

	first := &model.Booking{
		SeatNumber: seat, Month: 6, Year: 2026,
		ShiftTypes: []model.ShiftType{model.ShiftMorning, model.ShiftNight},
		UserID:     userID, PaymentRef: "it_pay_1",
	}
	if err := r.CreateActive(ctx, first); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if first.ID == 0 || first.BookedAt.IsZero() {
		t.Fatalf("booking not populated: %+v", first)
	}

	// Overlapping claim must lose on the unique key, and the transaction
	// rollback must not leave the free afternoon shift claimed.
	second := &model.Booking{
		SeatNumber: seat, Month: 6, Year: 2026,
		ShiftTypes: []model.ShiftType{model.ShiftAfternoon, model.ShiftNight},
		UserID:     userID, PaymentRef: "it_pay_2",
	}
	if err := r.CreateActive(ctx, second); !errors.Is(err, ErrDuplicateClaim) {
		t.Fatalf("overlapping claim: got %v, want ErrDuplicateClaim", err)
	}
	got, err := r.ActiveByShift(ctx, model.ShiftKey{SeatNumber: seat, Month: 6, Year: 2026, Shift: model.ShiftAfternoon})
	if err != nil {
		t.Fatalf("ActiveByShift: %v", err)
	}
	if got != nil {
		t.Fatalf("afternoon claimed by rolled back booking: %+v", got)
	}

	third := &model.Booking{
		SeatNumber: seat, Month: 6, Year: 2026,
		ShiftTypes: []model.ShiftType{model.ShiftAfternoon},
		UserID:     userID, PaymentRef: "it_pay_3",
	}
	if err := r.CreateActive(ctx, third); err != nil {
		t.Fatalf("claim on free shift after rollback: %v", err)
	}
}

func TestCancelFreesClaimKey(t *testing.T) {
	r := testDB(t)
	userID := seedUser(t, r)
	ctx := context.Background()
	seat := testSeat()

	b := &model.Booking{
		SeatNumber: seat, Month: 7, Year: 2026,
		ShiftTypes: []model.ShiftType{model.ShiftMorning},
		UserID:     userID, PaymentRef: "it_pay_1",
	}
	if err := r.CreateActive(ctx, b); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := r.Cancel(ctx, b.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := r.Cancel(ctx, b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second cancel: got %v, want ErrNotFound", err)
	}

	// The released key accepts a fresh claim, and the cancelled booking
	// still shows up in history with its shifts.
	again := &model.Booking{
		SeatNumber: seat, Month: 7, Year: 2026,
		ShiftTypes: []model.ShiftType{model.ShiftMorning},
		UserID:     userID, PaymentRef: "it_pay_2",
	}
	if err := r.CreateActive(ctx, again); err != nil {
		t.Fatalf("rebooking released shift: %v", err)
	}
	history, err := r.ByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ByUser: %v", err)
	}
	var foundCancelled bool
	for _, h := range history {
		if h.ID == b.ID {
			foundCancelled = true
			if h.Status != model.BookingCancelled || len(h.ShiftTypes) != 1 {
				t.Fatalf("cancelled booking history: %+v", h)
			}
		}
	}
	if !foundCancelled {
		t.Fatalf("cancelled booking missing from history")
	}
}

func TestProtectionClaimLifecycle(t *testing.T) {
	r := testDB(t)
	userID := seedUser(t, r)
	protections := NewProtectionRepo(r.DB())
	ctx := context.Background()
	seat := testSeat()
	now := time.Now().UTC()
	key := model.ShiftKey{SeatNumber: seat, Month: 8, Year: 2026, Shift: model.ShiftNight}

	p := &model.Protection{
		SeatNumber: seat, Month: 8, Year: 2026, Shift: model.ShiftNight,
		UserID: userID, ExpiresAt: now.Add(48 * time.Hour),
	}
	if err := protections.CreateLive(ctx, p); err != nil {
		t.Fatalf("first claim: %v", err)
	}

	dup := *p
	dup.ID = 0
	if err := protections.CreateLive(ctx, &dup); !errors.Is(err, ErrDuplicateClaim) {
		t.Fatalf("duplicate claim: got %v, want ErrDuplicateClaim", err)
	}

	// ResolveStale clears the caller's own claim and reports which rows it
	// touched; Restore puts them back, which is how a failed batch returns
	// the ledger to its prior state.
	ids, err := protections.ResolveStale(ctx, key, userID, now)
	if err != nil {
		t.Fatalf("ResolveStale: %v", err)
	}
	if len(ids) != 1 || ids[0] != p.ID {
		t.Fatalf("resolved ids = %v, want [%d]", ids, p.ID)
	}
	if err := protections.Restore(ctx, ids); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	restored, err := protections.LiveByShift(ctx, key, now)
	if err != nil {
		t.Fatalf("LiveByShift after restore: %v", err)
	}
	if restored == nil || restored.ID != p.ID {
		t.Fatalf("restored claim = %+v, want id %d live again", restored, p.ID)
	}

	// Resolving again frees the key for the renewal upsert.
	if _, err := protections.ResolveStale(ctx, key, userID, now); err != nil {
		t.Fatalf("second ResolveStale: %v", err)
	}
	renewed := &model.Protection{
		SeatNumber: seat, Month: 8, Year: 2026, Shift: model.ShiftNight,
		UserID: userID, ExpiresAt: now.Add(48 * time.Hour),
	}
	if err := protections.CreateLive(ctx, renewed); err != nil {
		t.Fatalf("renewal claim: %v", err)
	}
	got, err := protections.LiveByShift(ctx, key, now)
	if err != nil {
		t.Fatalf("LiveByShift: %v", err)
	}
	if got == nil || got.ID != renewed.ID {
		t.Fatalf("live claim = %+v, want renewed %d", got, renewed.ID)
	}
}

func TestReleaseExpiredIsIdempotent(t *testing.T) {
	r := testDB(t)
	userID := seedUser(t, r)
	protections := NewProtectionRepo(r.DB())
	ctx := context.Background()
	now := time.Now().UTC()

	p := &model.Protection{
		SeatNumber: testSeat(), Month: 9, Year: 2026, Shift: model.ShiftMorning,
		UserID: userID, ExpiresAt: now.Add(-time.Minute),
	}
	if err := protections.CreateLive(ctx, p); err != nil {
		t.Fatalf("claim: %v", err)
	}

	n, err := protections.ReleaseExpired(ctx, now)
	if err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if n < 1 {
		t.Fatalf("first sweep released %d, want at least 1", n)
	}
	if n, err = protections.ReleaseExpired(ctx, now); err != nil || n != 0 {
		t.Fatalf("second sweep: n=%d err=%v, want 0", n, err)
	}
}

func TestBlockUpsertAndUnblock(t *testing.T) {
	r := testDB(t)
	userID := seedUser(t, r)
	blocks := NewBlockRepo(r.DB())
	ctx := context.Background()
	seat := testSeat()
	key := model.ShiftKey{SeatNumber: seat, Month: 10, Year: 2026, Shift: model.ShiftAfternoon}

	b := &model.Block{SeatNumber: seat, Month: 10, Year: 2026, Shift: model.ShiftAfternoon, BlockedBy: userID}
	if err := blocks.Upsert(ctx, b); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	again := &model.Block{SeatNumber: seat, Month: 10, Year: 2026, Shift: model.ShiftAfternoon, BlockedBy: userID}
	if err := blocks.Upsert(ctx, again); err != nil {
		t.Fatalf("repeat upsert: %v", err)
	}
	if b.ID != again.ID {
		t.Fatalf("upsert created second row: %d vs %d", b.ID, again.ID)
	}

	n, err := blocks.Unblock(ctx, seat, 10, 2026, []model.ShiftType{model.ShiftAfternoon})
	if err != nil || n != 1 {
		t.Fatalf("unblock: n=%d err=%v", n, err)
	}
	got, err := blocks.LiveByShift(ctx, key)
	if err != nil {
		t.Fatalf("LiveByShift: %v", err)
	}
	if got != nil {
		t.Fatalf("block still live after unblock: %+v", got)
	}
}

package engine

import (
	"context"
	"sync"
	"time"

	"github.com/dikshantyadav2006/library-seat-backend/internal/model"
	"github.com/dikshantyadav2006/library-seat-backend/internal/repository"
)

// fakeClock returns a fixed instant until advanced.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock { return &fakeClock{now: now} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memBookings is an in-memory BookingStore.  Claim uniqueness is enforced
// under one mutex so concurrent CreateActive calls race exactly like the
// database unique key.
type memBookings struct {
	mu     sync.Mutex
	nextID uint64
	rows   []*model.Booking
}

func newMemBookings() *memBookings { return &memBookings{nextID: 1} }

func (s *memBookings) CreateActive(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if existing.Status != model.BookingActive ||
			existing.SeatNumber != b.SeatNumber || existing.Month != b.Month || existing.Year != b.Year {
			continue
		}
		for _, held := range existing.ShiftTypes {
			for _, want := range b.ShiftTypes {
				if held == want {
					return repository.ErrDuplicateClaim
				}
			}
		}
	}
	clone := *b
	clone.ID = s.nextID
	clone.Status = model.BookingActive
	if clone.BookedAt.IsZero() {
		clone.BookedAt = time.Now().UTC()
	}
	s.nextID++
	s.rows = append(s.rows, &clone)
	*b = clone
	return nil
}

func (s *memBookings) ActiveByShift(_ context.Context, key model.ShiftKey) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.rows {
		if b.Status == model.BookingActive && b.SeatNumber == key.SeatNumber &&
			b.Month == key.Month && b.Year == key.Year && b.Covers(key.Shift) {
			clone := *b
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *memBookings) ActiveForMonth(_ context.Context, month, year int) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.rows {
		if b.Status == model.BookingActive && b.Month == month && b.Year == year {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *memBookings) ActiveForSeat(_ context.Context, seat, month, year int) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.rows {
		if b.Status == model.BookingActive && b.SeatNumber == seat && b.Month == month && b.Year == year {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *memBookings) ByUser(_ context.Context, userID uint64) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.rows {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *memBookings) Cancel(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.rows {
		if b.ID == id && b.Status == model.BookingActive {
			b.Status = model.BookingCancelled
			return nil
		}
	}
	return repository.ErrNotFound
}

// memProtections is an in-memory ProtectionStore.  Resolved rows keep their
// Converted flag set so terminal state is observable from tests.
type memProtections struct {
	mu     sync.Mutex
	nextID uint64
	rows   []*model.Protection

	// failCreateAfter makes CreateLive fail once the given number of
	// successful creates has happened.  Zero disables the fault.
	failCreateAfter int
	created         int
}

func newMemProtections() *memProtections { return &memProtections{nextID: 1} }

func (s *memProtections) CreateLive(_ context.Context, p *model.Protection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreateAfter > 0 && s.created >= s.failCreateAfter {
		return context.DeadlineExceeded
	}
	for _, existing := range s.rows {
		if !existing.Converted && existing.SeatNumber == p.SeatNumber &&
			existing.Month == p.Month && existing.Year == p.Year && existing.Shift == p.Shift {
			return repository.ErrDuplicateClaim
		}
	}
	clone := *p
	clone.ID = s.nextID
	if clone.ProtectedAt.IsZero() {
		clone.ProtectedAt = time.Now().UTC()
	}
	s.nextID++
	s.created++
	s.rows = append(s.rows, &clone)
	*p = clone
	return nil
}

func (s *memProtections) LiveByShift(_ context.Context, key model.ShiftKey, now time.Time) (*model.Protection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.rows {
		if p.Live(now) && p.SeatNumber == key.SeatNumber && p.Month == key.Month &&
			p.Year == key.Year && p.Shift == key.Shift {
			clone := *p
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *memProtections) LiveForMonth(_ context.Context, month, year int, now time.Time) ([]model.Protection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Protection
	for _, p := range s.rows {
		if p.Live(now) && p.Month == month && p.Year == year {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *memProtections) LiveForSeat(_ context.Context, seat, month, year int, now time.Time) ([]model.Protection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Protection
	for _, p := range s.rows {
		if p.Live(now) && p.SeatNumber == seat && p.Month == month && p.Year == year {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *memProtections) ResolveStale(_ context.Context, key model.ShiftKey, userID uint64, now time.Time) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint64
	for _, p := range s.rows {
		if p.Converted || p.SeatNumber != key.SeatNumber || p.Month != key.Month ||
			p.Year != key.Year || p.Shift != key.Shift {
			continue
		}
		if !p.ExpiresAt.After(now) || p.UserID == userID {
			p.Converted = true
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (s *memProtections) Restore(_ context.Context, ids []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		for _, p := range s.rows {
			if p.ID != id || !p.Converted {
				continue
			}
			for _, other := range s.rows {
				if !other.Converted && other.SeatNumber == p.SeatNumber &&
					other.Month == p.Month && other.Year == p.Year && other.Shift == p.Shift {
					return repository.ErrDuplicateClaim
				}
			}
			p.Converted = false
		}
	}
	return nil
}

func (s *memProtections) MarkConverted(_ context.Context, seat, month, year int, shifts []model.ShiftType, userID uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.rows {
		if p.Converted || p.SeatNumber != seat || p.Month != month || p.Year != year || p.UserID != userID {
			continue
		}
		for _, shift := range shifts {
			if p.Shift == shift {
				p.Converted = true
				n++
				break
			}
		}
	}
	return n, nil
}

func (s *memProtections) ReleaseExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.rows {
		if !p.Converted && p.ExpiresAt.Before(now) {
			p.Converted = true
			n++
		}
	}
	return n, nil
}

func (s *memProtections) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.rows {
		if p.ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// liveCount reports how many unresolved, unexpired protections exist.
func (s *memProtections) liveCount(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.rows {
		if p.Live(now) {
			n++
		}
	}
	return n
}

// memBlocks is an in-memory BlockStore.
type memBlocks struct {
	mu     sync.Mutex
	nextID uint64
	rows   []*model.Block

	// onUpsert, when set, runs before each upsert.  Tests use it to slip a
	// concurrent write between a manager's pre-check and its block write.
	onUpsert func()
}

func newMemBlocks() *memBlocks { return &memBlocks{nextID: 1} }

func (s *memBlocks) Upsert(_ context.Context, b *model.Block) error {
	if s.onUpsert != nil {
		s.onUpsert()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if existing.SeatNumber == b.SeatNumber && existing.Month == b.Month &&
			existing.Year == b.Year && existing.Shift == b.Shift {
			existing.BlockedBy = b.BlockedBy
			existing.BlockedAt = time.Now().UTC()
			existing.IsBlocked = true
			*b = *existing
			return nil
		}
	}
	clone := *b
	clone.ID = s.nextID
	clone.BlockedAt = time.Now().UTC()
	clone.IsBlocked = true
	s.nextID++
	s.rows = append(s.rows, &clone)
	*b = clone
	return nil
}

func (s *memBlocks) LiveByShift(_ context.Context, key model.ShiftKey) (*model.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.rows {
		if b.IsBlocked && b.SeatNumber == key.SeatNumber && b.Month == key.Month &&
			b.Year == key.Year && b.Shift == key.Shift {
			clone := *b
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *memBlocks) LiveForMonth(_ context.Context, month, year int) ([]model.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Block
	for _, b := range s.rows {
		if b.IsBlocked && b.Month == month && b.Year == year {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *memBlocks) LiveForSeat(_ context.Context, seat, month, year int) ([]model.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Block
	for _, b := range s.rows {
		if b.IsBlocked && b.SeatNumber == seat && b.Month == month && b.Year == year {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *memBlocks) Unblock(_ context.Context, seat, month, year int, shifts []model.ShiftType) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, b := range s.rows {
		if !b.IsBlocked || b.SeatNumber != seat || b.Month != month || b.Year != year {
			continue
		}
		for _, shift := range shifts {
			if b.Shift == shift {
				b.IsBlocked = false
				n++
				break
			}
		}
	}
	return n, nil
}

// harness bundles the fakes with engine components wired against them.
type harness struct {
	bookings    *memBookings
	protections *memProtections
	blocks      *memBlocks
	clk         *fakeClock
	resolver    *Resolver
	coordinator *Coordinator
}

func newHarness(now time.Time, totalSeats int) *harness {
	h := &harness{
		bookings:    newMemBookings(),
		protections: newMemProtections(),
		blocks:      newMemBlocks(),
		clk:         newFakeClock(now),
	}
	h.resolver = NewResolver(h.bookings, h.protections, h.blocks, h.clk)
	h.coordinator = NewCoordinator(h.bookings, h.protections, h.resolver, h.clk, time.UTC, totalSeats)
	return h
}

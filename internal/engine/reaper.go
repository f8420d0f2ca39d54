package engine

import (
	"context"
	"log"
	"time"

	"github.com/dikshantyadav2006/library-seat-backend/internal/clock"
)

// Reaper releases protections whose deadline has passed.  The sweep is a
// single one-way write (live -> resolved), so running it concurrently with
// bookings converting the same protection is benign: whichever transition
// lands first wins and the other touches nothing.
type Reaper struct {
	protections ProtectionStore
	clk         clock.Clock
	interval    time.Duration
}

// NewReaper constructs a Reaper that sweeps every interval when run as a
// background loop.
func NewReaper(p ProtectionStore, clk clock.Clock, interval time.Duration) *Reaper {
	if p == nil || clk == nil {
		panic("nil dependency passed to NewReaper")
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Reaper{protections: p, clk: clk, interval: interval}
}

// ReleaseExpiredProtections resolves every live protection past its
// deadline and returns how many were released.  Idempotent: a second run
// finds nothing left to release.
func (r *Reaper) ReleaseExpiredProtections(ctx context.Context) (int64, error) {
	return r.protections.ReleaseExpired(ctx, r.clk.Now())
}

// Run sweeps on a ticker until ctx is cancelled.  Errors are logged and the
// loop keeps going; a failed sweep is retried on the next tick.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.ReleaseExpiredProtections(ctx)
			if err != nil {
				log.Printf("reaper: sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("reaper: released %d expired protections", n)
			}
		}
	}
}

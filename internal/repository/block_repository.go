package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dikshantyadav2006/library-seat-backend/internal/model"
)

// BlockRepo provides data access to the blocked_seats ledger.  One row per
// blocked shift with a unique key on (seat_number, month, year, shift_type);
// re-blocking an already blocked shift upserts in place, so the table never
// holds two rows for the same key.
type BlockRepo struct {
	db *sql.DB
}

// NewBlockRepo returns a BlockRepo bound to the provided database.
func NewBlockRepo(db *sql.DB) *BlockRepo { return &BlockRepo{db: db} }

// Upsert creates or refreshes the block for b's shift key and marks it
// live.  The generated ID and BlockedAt are populated on b.
func (r *BlockRepo) Upsert(ctx context.Context, b *model.Block) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blocked_seats (seat_number, month, year, shift_type, blocked_by, is_blocked)
		 VALUES (?, ?, ?, ?, ?, 1)
		 ON DUPLICATE KEY UPDATE blocked_by = VALUES(blocked_by), blocked_at = CURRENT_TIMESTAMP, is_blocked = 1`,
		b.SeatNumber, b.Month, b.Year, string(b.Shift), b.BlockedBy,
	)
	if err != nil {
		return err
	}
	b.IsBlocked = true
	// LastInsertId is unreliable for upserts; read the row back instead.
	return r.db.QueryRowContext(ctx,
		`SELECT id, blocked_at FROM blocked_seats
		 WHERE seat_number = ? AND month = ? AND year = ? AND shift_type = ?`,
		b.SeatNumber, b.Month, b.Year, string(b.Shift),
	).Scan(&b.ID, &b.BlockedAt)
}

// LiveByShift returns the live block for a shift key, or nil when the shift
// is not blocked.
func (r *BlockRepo) LiveByShift(ctx context.Context, key model.ShiftKey) (*model.Block, error) {
	const q = `SELECT id, seat_number, month, year, shift_type, blocked_by, blocked_at, is_blocked
	           FROM blocked_seats
	           WHERE seat_number = ? AND month = ? AND year = ? AND shift_type = ? AND is_blocked = 1`
	var b model.Block
	var shift string
	err := r.db.QueryRowContext(ctx, q, key.SeatNumber, key.Month, key.Year, string(key.Shift)).Scan(
		&b.ID, &b.SeatNumber, &b.Month, &b.Year, &shift, &b.BlockedBy, &b.BlockedAt, &b.IsBlocked,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.Shift = model.ShiftType(shift)
	return &b, nil
}

// LiveForMonth returns all live blocks in the given month.  Used by the
// month grid projection.
func (r *BlockRepo) LiveForMonth(ctx context.Context, month, year int) ([]model.Block, error) {
	const q = `SELECT id, seat_number, month, year, shift_type, blocked_by, blocked_at, is_blocked
	           FROM blocked_seats WHERE month = ? AND year = ? AND is_blocked = 1 ORDER BY id`
	return r.query(ctx, q, month, year)
}

// LiveForSeat returns the live blocks on one seat for a month.
func (r *BlockRepo) LiveForSeat(ctx context.Context, seat, month, year int) ([]model.Block, error) {
	const q = `SELECT id, seat_number, month, year, shift_type, blocked_by, blocked_at, is_blocked
	           FROM blocked_seats WHERE seat_number = ? AND month = ? AND year = ? AND is_blocked = 1 ORDER BY id`
	return r.query(ctx, q, seat, month, year)
}

// Unblock flips is_blocked off for the given shifts.  It touches nothing
// else; bookings or protections that existed before the block are not
// resurrected because they were never removed.  Returns how many blocks
// were lifted.
func (r *BlockRepo) Unblock(ctx context.Context, seat, month, year int, shifts []model.ShiftType) (int64, error) {
	if len(shifts) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(shifts)), ",")
	args := []interface{}{seat, month, year}
	for _, s := range shifts {
		args = append(args, string(s))
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE blocked_seats SET is_blocked = 0
		 WHERE seat_number = ? AND month = ? AND year = ? AND is_blocked = 1
		   AND shift_type IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *BlockRepo) query(ctx context.Context, q string, args ...interface{}) ([]model.Block, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Block
	for rows.Next() {
		var b model.Block
		var shift string
		if err := rows.Scan(&b.ID, &b.SeatNumber, &b.Month, &b.Year, &shift, &b.BlockedBy, &b.BlockedAt, &b.IsBlocked); err != nil {
			return nil, err
		}
		b.Shift = model.ShiftType(shift)
		out = append(out, b)
	}
	return out, rows.Err()
}

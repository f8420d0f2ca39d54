package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/dikshantyadav2006/library-seat-backend/internal/model"
)

// ProtectionRepo provides data access to the protections ledger.  Each row
// protects exactly one shift.  Liveness uses the same NULL-unique trick as
// booking claims: `live` is 1 while the protection holds its claim and NULL
// once resolved, so the unique key on (seat_number, month, year, shift_type,
// live) admits any number of resolved rows but at most one live claim per
// shift.  Expiry is time based, which means a row past its deadline can
// still carry live = 1 until a writer or the reaper resolves it; every
// query therefore also checks expires_at, and ResolveStale clears such rows
// before a fresh insert.
type ProtectionRepo struct {
	db *sql.DB
}

// NewProtectionRepo returns a ProtectionRepo bound to the provided database.
func NewProtectionRepo(db *sql.DB) *ProtectionRepo { return &ProtectionRepo{db: db} }

const protectionCols = `id, seat_number, month, year, shift_type, user_id, protected_at, expires_at, converted`

// CreateLive inserts one live protection claim.  Losing the unique-key race
// to another live claim yields ErrDuplicateClaim.  The generated ID and
// ProtectedAt are populated on p.
func (r *ProtectionRepo) CreateLive(ctx context.Context, p *model.Protection) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO protections (seat_number, month, year, shift_type, user_id, expires_at, converted, live)
		 VALUES (?, ?, ?, ?, ?, ?, 0, 1)`,
		p.SeatNumber, p.Month, p.Year, string(p.Shift), p.UserID, p.ExpiresAt.UTC(),
	)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateClaim
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.Converted = false
	return r.db.QueryRowContext(ctx,
		`SELECT protected_at FROM protections WHERE id = ?`, p.ID,
	).Scan(&p.ProtectedAt)
}

// LiveByShift returns the live, unexpired protection for a shift key, or
// nil when none exists.
func (r *ProtectionRepo) LiveByShift(ctx context.Context, key model.ShiftKey, now time.Time) (*model.Protection, error) {
	q := `SELECT ` + protectionCols + ` FROM protections
	      WHERE seat_number = ? AND month = ? AND year = ? AND shift_type = ? AND live = 1 AND converted = 0 AND expires_at > ?`
	var p model.Protection
	var shift string
	err := r.db.QueryRowContext(ctx, q, key.SeatNumber, key.Month, key.Year, string(key.Shift), now.UTC()).Scan(
		&p.ID, &p.SeatNumber, &p.Month, &p.Year, &shift, &p.UserID, &p.ProtectedAt, &p.ExpiresAt, &p.Converted,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Shift = model.ShiftType(shift)
	return &p, nil
}

// LiveForMonth returns all live, unexpired protections in the given month.
// Used by the month grid projection.
func (r *ProtectionRepo) LiveForMonth(ctx context.Context, month, year int, now time.Time) ([]model.Protection, error) {
	q := `SELECT ` + protectionCols + ` FROM protections
	      WHERE month = ? AND year = ? AND live = 1 AND converted = 0 AND expires_at > ?
	      ORDER BY id`
	return r.query(ctx, q, month, year, now.UTC())
}

// LiveForSeat returns the live, unexpired protections on one seat for a
// month.
func (r *ProtectionRepo) LiveForSeat(ctx context.Context, seat, month, year int, now time.Time) ([]model.Protection, error) {
	q := `SELECT ` + protectionCols + ` FROM protections
	      WHERE seat_number = ? AND month = ? AND year = ? AND live = 1 AND converted = 0 AND expires_at > ?
	      ORDER BY id`
	return r.query(ctx, q, seat, month, year, now.UTC())
}

// ResolveStale resolves any claim for the given shift that is either
// already expired or held by the given user.  It runs before a fresh insert
// so an inert row cannot block the unique key (the upsert half of renewing
// one's own protection).  The IDs of the resolved rows are returned; a
// batch that fails later passes them to Restore to put the ledger back.
func (r *ProtectionRepo) ResolveStale(ctx context.Context, key model.ShiftKey, userID uint64, now time.Time) ([]uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	// MySQL has no RETURNING, so the rows are selected for update first and
	// resolved by ID.
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM protections
		 WHERE seat_number = ? AND month = ? AND year = ? AND shift_type = ? AND live = 1
		   AND (expires_at <= ? OR user_id = ?) FOR UPDATE`,
		key.SeatNumber, key.Month, key.Year, string(key.Shift), now.UTC(), userID,
	)
	if err != nil {
		return nil, err
	}
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		placeholders, args := idList(ids)
		if _, err := tx.ExecContext(ctx,
			`UPDATE protections SET converted = 1, live = NULL WHERE id IN (`+placeholders+`)`,
			args...,
		); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return ids, nil
}

// Restore reinstates resolved rows as live claims.  Compensation for a
// failed batch deletes the batch's fresh inserts first, so the claim keys
// are normally free again; a concurrent writer that grabbed one in the gap
// surfaces as ErrDuplicateClaim.
func (r *ProtectionRepo) Restore(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders, args := idList(ids)
	_, err := r.db.ExecContext(ctx,
		`UPDATE protections SET converted = 0, live = 1 WHERE id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil && isDuplicateKey(err) {
		return ErrDuplicateClaim
	}
	return err
}

// idList builds an IN-clause placeholder string plus matching args.
func idList(ids []uint64) (string, []interface{}) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return placeholders, args
}

// MarkConverted resolves the user's live protections intersecting the given
// shifts.  It is idempotent; absence of a matching protection is not an
// error.  Returns the number of protections converted.
func (r *ProtectionRepo) MarkConverted(ctx context.Context, seat, month, year int, shifts []model.ShiftType, userID uint64) (int64, error) {
	if len(shifts) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(shifts)), ",")
	args := []interface{}{seat, month, year, userID}
	for _, s := range shifts {
		args = append(args, string(s))
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE protections SET converted = 1, live = NULL
		 WHERE seat_number = ? AND month = ? AND year = ? AND user_id = ? AND live = 1
		   AND shift_type IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReleaseExpired resolves every live protection whose deadline has passed.
// A single idempotent UPDATE, so concurrent bookings converting the same
// row race benignly: whichever write lands first wins and the other
// matches zero rows.
func (r *ProtectionRepo) ReleaseExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE protections SET converted = 1, live = NULL WHERE live = 1 AND expires_at < ?`,
		now.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a protection row entirely.  Only used to compensate claims
// created earlier in a failed multi-month batch.
func (r *ProtectionRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM protections WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProtectionRepo) query(ctx context.Context, q string, args ...interface{}) ([]model.Protection, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Protection
	for rows.Next() {
		var p model.Protection
		var shift string
		if err := rows.Scan(&p.ID, &p.SeatNumber, &p.Month, &p.Year, &shift, &p.UserID, &p.ProtectedAt, &p.ExpiresAt, &p.Converted); err != nil {
			return nil, err
		}
		p.Shift = model.ShiftType(shift)
		out = append(out, p)
	}
	return out, rows.Err()
}

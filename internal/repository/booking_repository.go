package repository

import (
	"context"
	"database/sql"

	"github.com/dikshantyadav2006/library-seat-backend/internal/model"
)

// BookingRepo provides data access to the bookings ledger.  A booking is one
// row in `bookings` plus one claim row per shift in `booking_shifts`.  The
// unique key on (seat_number, month, year, shift_type) in the claims table
// is what makes a booking claim atomic: a concurrent writer for the same
// shift receives a duplicate-key error instead of silently overwriting the
// winner.  Claim rows carry a `live` flag that is 1 while the claim holds
// and NULL once released; the unique key only ever collides on live rows
// because MySQL permits repeated NULLs.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the provided database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span repositories.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// CreateActive inserts a booking together with one claim row per shift as a
// single transaction.  Either every shift is claimed or none is.  When any
// claim row collides with an existing one, the transaction is rolled back
// and ErrDuplicateClaim is returned.  On success the generated ID and
// BookedAt are populated on b.
func (r *BookingRepo) CreateActive(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (seat_number, month, year, user_id, payment_ref, status) VALUES (?, ?, ?, ?, ?, ?)`,
		b.SeatNumber, b.Month, b.Year, b.UserID, b.PaymentRef, model.BookingActive,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.Status = model.BookingActive

	query := `INSERT INTO booking_shifts (booking_id, seat_number, month, year, shift_type, live) VALUES `
	args := make([]interface{}, 0, len(b.ShiftTypes)*5)
	for i, s := range b.ShiftTypes {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, 1)"
		args = append(args, b.ID, b.SeatNumber, b.Month, b.Year, string(s))
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateClaim
		}
		return err
	}

	if err := tx.QueryRowContext(ctx,
		`SELECT booked_at FROM bookings WHERE id = ?`, b.ID,
	).Scan(&b.BookedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ActiveByShift returns the active booking holding the given shift key, or
// nil when the shift is not booked.
func (r *BookingRepo) ActiveByShift(ctx context.Context, key model.ShiftKey) (*model.Booking, error) {
	const q = `SELECT b.id, b.seat_number, b.month, b.year, b.user_id, b.payment_ref, b.status, b.booked_at
	           FROM bookings b
	           JOIN booking_shifts s ON s.booking_id = b.id
	           WHERE s.seat_number = ? AND s.month = ? AND s.year = ? AND s.shift_type = ? AND s.live = 1 AND b.status = ?`
	var b model.Booking
	err := r.db.QueryRowContext(ctx, q, key.SeatNumber, key.Month, key.Year, string(key.Shift), model.BookingActive).Scan(
		&b.ID, &b.SeatNumber, &b.Month, &b.Year, &b.UserID, &b.PaymentRef, &b.Status, &b.BookedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if b.ShiftTypes, err = r.shiftsFor(ctx, b.ID); err != nil {
		return nil, err
	}
	return &b, nil
}

// ActiveForMonth returns every active booking in the given month with its
// shift list populated.  Used by the month grid projection.
func (r *BookingRepo) ActiveForMonth(ctx context.Context, month, year int) ([]model.Booking, error) {
	const q = `SELECT b.id, b.seat_number, b.month, b.year, b.user_id, b.payment_ref, b.status, b.booked_at, s.shift_type
	           FROM bookings b
	           JOIN booking_shifts s ON s.booking_id = b.id
	           WHERE b.month = ? AND b.year = ? AND s.live = 1 AND b.status = ?
	           ORDER BY b.id`
	return r.collect(ctx, q, month, year, model.BookingActive)
}

// ActiveForSeat returns the active bookings for one seat in a month.
func (r *BookingRepo) ActiveForSeat(ctx context.Context, seat, month, year int) ([]model.Booking, error) {
	const q = `SELECT b.id, b.seat_number, b.month, b.year, b.user_id, b.payment_ref, b.status, b.booked_at, s.shift_type
	           FROM bookings b
	           JOIN booking_shifts s ON s.booking_id = b.id
	           WHERE b.seat_number = ? AND b.month = ? AND b.year = ? AND s.live = 1 AND b.status = ?
	           ORDER BY b.id`
	return r.collect(ctx, q, seat, month, year, model.BookingActive)
}

// ByUser returns all of a user's bookings, newest month first.  Cancelled
// bookings are included so callers can show history; they carry no claims.
func (r *BookingRepo) ByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	const q = `SELECT b.id, b.seat_number, b.month, b.year, b.user_id, b.payment_ref, b.status, b.booked_at, s.shift_type
	           FROM bookings b
	           JOIN booking_shifts s ON s.booking_id = b.id
	           WHERE b.user_id = ?
	           ORDER BY b.year DESC, b.month DESC, b.id`
	return r.collect(ctx, q, userID)
}

// Cancel flips an active booking to cancelled and releases its claim rows
// (live -> NULL) so the shifts become available again while the history is
// preserved.  Returns ErrNotFound when no active booking with the given ID
// exists.
func (r *BookingRepo) Cancel(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE id = ? AND status = ?`,
		model.BookingCancelled, id, model.BookingActive,
	)
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
	if _, err := tx.ExecContext(ctx, `UPDATE booking_shifts SET live = NULL WHERE booking_id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// shiftsFor loads the claim rows belonging to one booking.
func (r *BookingRepo) shiftsFor(ctx context.Context, bookingID uint64) ([]model.ShiftType, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT shift_type FROM booking_shifts WHERE booking_id = ? ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var shifts []model.ShiftType
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		shifts = append(shifts, model.ShiftType(s))
	}
	return shifts, rows.Err()
}

// collect runs a booking+shift join query and folds the rows into bookings
// with their shift lists, preserving row order.
func (r *BookingRepo) collect(ctx context.Context, query string, args ...interface{}) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	index := make(map[uint64]int)
	for rows.Next() {
		var b model.Booking
		var shift string
		if err := rows.Scan(&b.ID, &b.SeatNumber, &b.Month, &b.Year, &b.UserID, &b.PaymentRef, &b.Status, &b.BookedAt, &shift); err != nil {
			return nil, err
		}
		if i, ok := index[b.ID]; ok {
			out[i].ShiftTypes = append(out[i].ShiftTypes, model.ShiftType(shift))
			continue
		}
		b.ShiftTypes = []model.ShiftType{model.ShiftType(shift)}
		index[b.ID] = len(out)
		out = append(out, b)
	}
	return out, rows.Err()
}

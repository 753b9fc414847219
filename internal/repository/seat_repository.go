package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// SeatRepo provides data access to the `seats` table. Status transitions
// come from two distinct paths with separate authority: the booking
// transaction moves seats between `available` and `booked` (the ...Tx
// methods, always inside the caller's transaction), while the live channel
// toggles the advisory `available`/`selected` pair through guarded
// single-row updates that can never touch a booked seat.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []uint64) []any {
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}

// CreateBulk inserts multiple seats in a single statement.
func (r *SeatRepo) CreateBulk(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seats (event_id, row_label, seat_number, category, price_cents, status) VALUES `
	args := make([]any, 0, len(seats)*6)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, s.EventID, s.RowLabel, s.SeatNumber, s.Category, s.PriceCents, model.SeatAvailable)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// ListByEvent returns every seat of an event ordered by row then number.
func (r *SeatRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Seat, error) {
	const q = `SELECT id, event_id, row_label, seat_number, category, price_cents, status, user_id
	           FROM seats WHERE event_id = ? ORDER BY row_label, seat_number`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.Seat, 0)
	for rows.Next() {
		var s model.Seat
		var holder sql.NullInt64
		if err := rows.Scan(&s.ID, &s.EventID, &s.RowLabel, &s.SeatNumber, &s.Category, &s.PriceCents, &s.Status, &holder); err != nil {
			return nil, err
		}
		if holder.Valid {
			h := uint64(holder.Int64)
			s.HolderID = &h
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// AvailableForUpdateTx re-reads the requested seats inside the caller's
// transaction, restricted to the given event and to status `available`,
// and locks the matching rows. The booking service compares the returned
// count against the requested count: fewer rows means at least one seat
// was booked, advisory-held by someone else, or mid-reservation by a
// concurrent transaction, and the whole booking must abort.
func (r *SeatRepo) AvailableForUpdateTx(ctx context.Context, tx *sql.Tx, eventID uint64, ids []uint64) ([]model.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := `SELECT id, event_id, row_label, seat_number, category, price_cents, status
	      FROM seats WHERE id IN (` + placeholders(len(ids)) + `) AND event_id = ? AND status = ?
	      ORDER BY id FOR UPDATE`
	args := append(idArgs(ids), eventID, model.SeatAvailable)
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.EventID, &s.RowLabel, &s.SeatNumber, &s.Category, &s.PriceCents, &s.Status); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// ReleaseSelectionsTx clears the requesting user's own advisory selections
// on the given seats so the subsequent availability re-read is not blocked
// by the requester's in-progress picks. Other users' selections are left
// untouched and will fail the availability check instead.
func (r *SeatRepo) ReleaseSelectionsTx(ctx context.Context, tx *sql.Tx, eventID uint64, ids []uint64, userID uint64) error {
	if len(ids) == 0 {
		return nil
	}
	q := `UPDATE seats SET status = ?, user_id = NULL
	      WHERE id IN (` + placeholders(len(ids)) + `) AND event_id = ? AND status = ? AND user_id = ?`
	args := append([]any{model.SeatAvailable}, idArgs(ids)...)
	args = append(args, eventID, model.SeatSelected, userID)
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// MarkBookedTx transitions the given seats to `booked` for the buyer,
// inside the caller's transaction.
func (r *SeatRepo) MarkBookedTx(ctx context.Context, tx *sql.Tx, eventID uint64, ids []uint64, userID uint64) error {
	if len(ids) == 0 {
		return nil
	}
	q := `UPDATE seats SET status = ?, user_id = ?
	      WHERE id IN (` + placeholders(len(ids)) + `) AND event_id = ?`
	args := append([]any{model.SeatBooked, userID}, idArgs(ids)...)
	args = append(args, eventID)
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// MarkAvailableTx returns the given seats to `available` and clears the
// holder, used by cancellation inside the caller's transaction.
func (r *SeatRepo) MarkAvailableTx(ctx context.Context, tx *sql.Tx, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	q := `UPDATE seats SET status = ?, user_id = NULL WHERE id IN (` + placeholders(len(ids)) + `)`
	args := append([]any{model.SeatAvailable}, idArgs(ids)...)
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// SelectAdvisory marks a seat as advisorily selected by holderID. The
// update is guarded on the current status being `available`, so it can
// race freely with bookings without ever overwriting a booked seat. It
// reports whether the toggle took effect.
func (r *SeatRepo) SelectAdvisory(ctx context.Context, eventID, seatID, holderID uint64) (bool, error) {
	const q = `UPDATE seats SET status = ?, user_id = ?
	           WHERE id = ? AND event_id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, model.SeatSelected, holderID, seatID, eventID, model.SeatAvailable)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeselectAdvisory reverses SelectAdvisory. Only a seat currently in the
// advisory `selected` state is touched; booked seats are never released
// through this path.
func (r *SeatRepo) DeselectAdvisory(ctx context.Context, eventID, seatID uint64) (bool, error) {
	const q = `UPDATE seats SET status = ?, user_id = NULL
	           WHERE id = ? AND event_id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, model.SeatAvailable, seatID, eventID, model.SeatSelected)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ClearSelections releases the advisory `selected` state on the given
// seats regardless of holder. Used when a live-channel session disconnects
// so its picks do not appear permanently held.
func (r *SeatRepo) ClearSelections(ctx context.Context, eventID uint64, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	q := `UPDATE seats SET status = ?, user_id = NULL
	      WHERE id IN (` + placeholders(len(ids)) + `) AND event_id = ? AND status = ?`
	args := append([]any{model.SeatAvailable}, idArgs(ids)...)
	args = append(args, eventID, model.SeatSelected)
	_, err := r.db.ExecContext(ctx, q, args...)
	return err
}

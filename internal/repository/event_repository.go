package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// EventRepo provides data access to the `events` table. The
// available_seats counter is only ever adjusted through AdjustAvailableTx,
// inside the same transaction as the seat-status changes it accounts for.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle so callers can begin transactions.
func (r *EventRepo) DB() *sql.DB { return r.db }

const eventColumns = `id, title, description, image, date, time, location,
	price_cents, category, total_seats, available_seats, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }, ev *model.Event) error {
	var desc, image sql.NullString
	var date time.Time
	err := row.Scan(
		&ev.ID, &ev.Title, &desc, &image, &date, &ev.Time, &ev.Location,
		&ev.PriceCents, &ev.Category, &ev.TotalSeats, &ev.AvailableSeats,
		&ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		return err
	}
	ev.Description = desc.String
	ev.Image = image.String
	// DATE columns come back as time.Time with parseTime=true
	ev.Date = date.UTC().Format("2006-01-02")
	return nil
}

// Create inserts an event. On success the event's ID is populated.
// AvailableSeats should equal TotalSeats for a freshly created event.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
	const q = `INSERT INTO events (title, description, image, date, time, location,
	           price_cents, category, total_seats, available_seats)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		ev.Title, ev.Description, ev.Image, ev.Date, ev.Time, ev.Location,
		ev.PriceCents, ev.Category, ev.TotalSeats, ev.AvailableSeats,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)
	return nil
}

// GetByID returns a single event or ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	var ev model.Event
	if err := scanEvent(r.db.QueryRowContext(ctx, q, id), &ev); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &ev, nil
}

// GetByIDTx is GetByID executed inside an existing transaction, used by the
// booking service so the event row is read under the same isolation as the
// seat checks.
func (r *EventRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	var ev model.Event
	if err := scanEvent(tx.QueryRowContext(ctx, q, id), &ev); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &ev, nil
}

// List returns all events ordered by date then time.
func (r *EventRepo) List(ctx context.Context) ([]model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events ORDER BY date, time, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]model.Event, 0)
	for rows.Next() {
		var ev model.Event
		if err := scanEvent(rows, &ev); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Update rewrites the editable catalog fields of an event. Counter fields
// are deliberately excluded; they belong to the booking transaction.
func (r *EventRepo) Update(ctx context.Context, ev *model.Event) error {
	const q = `UPDATE events SET title = ?, description = ?, image = ?, date = ?,
	           time = ?, location = ?, price_cents = ?, category = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		ev.Title, ev.Description, ev.Image, ev.Date, ev.Time, ev.Location,
		ev.PriceCents, ev.Category, ev.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is 0 both for a missing row and for a no-op update;
		// distinguish by probing for existence.
		if _, err := r.GetByID(ctx, ev.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes an event. Seats cascade via the foreign key.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// AdjustAvailableTx moves the available_seats counter by delta inside an
// existing transaction. It must be called exactly once per committed
// reserve (negative delta) or cancel (positive delta). A decrement below
// zero affects no rows and is reported as ErrSeatUnavailable, though the
// row locks taken by the seat re-read should make that unreachable.
func (r *EventRepo) AdjustAvailableTx(ctx context.Context, tx *sql.Tx, id uint64, delta int) error {
	const q = `UPDATE events SET available_seats = available_seats + ?
	           WHERE id = ? AND available_seats + ? >= 0`
	res, err := tx.ExecContext(ctx, q, delta, id, delta)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 && delta != 0 {
		return ErrSeatUnavailable
	}
	return nil
}

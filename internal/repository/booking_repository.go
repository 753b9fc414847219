package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/event-ticket-booking/internal/model"
)

// BookingRepo provides data access to the `bookings` and `booking_seats`
// tables. Rows are only ever created by the booking service's transaction;
// the read methods assemble the detail views served by the API.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// NewBookingReference generates the short opaque reference printed on
// tickets, e.g. "BK-4F1A0C9E2B".
func NewBookingReference() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "BK-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}

// CreateTx inserts a booking within the caller's transaction and populates
// the generated ID and timestamps on the provided record.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (booking_reference, user_id, event_id, total_amount_cents,
	           payment_id, payment_status, booking_status)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		b.Reference, b.UserID, b.EventID, b.TotalAmountCents,
		b.PaymentID, b.PaymentStatus, b.BookingStatus,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// AddSeatsBulkTx inserts the booking_seats links in a single statement,
// recording the per-seat price locked in at commit time.
func (r *BookingRepo) AddSeatsBulkTx(ctx context.Context, tx *sql.Tx, seats []model.BookingSeat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO booking_seats (booking_id, seat_id, price_cents) VALUES `
	args := make([]any, 0, len(seats)*3)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, s.BookingID, s.SeatID, s.PriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetForUpdateTx loads a booking under a row lock inside the caller's
// transaction, so cancellation cannot race with itself or with reads of
// the linked seats. Returns ErrBookingNotFound when the row is absent.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	const q = `SELECT id, booking_reference, user_id, event_id, total_amount_cents,
	           payment_id, payment_status, booking_status, qr_code, created_at, updated_at
	           FROM bookings WHERE id = ? FOR UPDATE`
	var b model.Booking
	var payID, ticket sql.NullString
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.Reference, &b.UserID, &b.EventID, &b.TotalAmountCents,
		&payID, &b.PaymentStatus, &b.BookingStatus, &ticket, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if payID.Valid {
		p := payID.String
		b.PaymentID = &p
	}
	b.TicketRef = ticket.String
	return &b, nil
}

// SeatIDsTx returns the seat IDs linked to a booking, inside the caller's
// transaction.
func (r *BookingRepo) SeatIDsTx(ctx context.Context, tx *sql.Tx, bookingID uint64) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT seat_id FROM booking_seats WHERE booking_id = ?`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkCancelledTx flips the booking status to cancelled inside the
// caller's transaction.
func (r *BookingRepo) MarkCancelledTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE bookings SET booking_status = ? WHERE id = ?`, model.BookingCancelled, id)
	return err
}

// SetTicketRef stores the generated ticket artifact reference. This runs
// outside the booking transaction: artifact generation is best-effort and
// a failure leaves the booking valid with an empty reference.
func (r *BookingRepo) SetTicketRef(ctx context.Context, id uint64, ref string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE bookings SET qr_code = ? WHERE id = ?`, ref, id)
	return err
}

// BookingSeatDetail describes one reserved seat within a booking detail
// view, with the price copied at commit time.
type BookingSeatDetail struct {
	SeatID     uint64 `json:"seat_id"`
	RowLabel   string `json:"row"`
	SeatNumber uint32 `json:"seat_number"`
	Category   string `json:"category"`
	PriceCents uint32 `json:"price_cents"`
}

// BookingDetail is a booking joined with its event and seats, as returned
// by the read endpoints.
type BookingDetail struct {
	ID               uint64              `json:"id"`
	Reference        string              `json:"booking_reference"`
	UserID           uint64              `json:"user_id"`
	EventID          uint64              `json:"event_id"`
	EventTitle       string              `json:"event_title"`
	EventDate        string              `json:"event_date"`
	EventTime        string              `json:"event_time"`
	Location         string              `json:"location"`
	TotalAmountCents uint32              `json:"total_amount_cents"`
	PaymentID        *string             `json:"payment_id,omitempty"`
	PaymentStatus    string              `json:"payment_status"`
	BookingStatus    string              `json:"booking_status"`
	TicketRef        string              `json:"qr_code,omitempty"`
	CreatedAt        string              `json:"created_at"`
	UserName         string              `json:"user_name,omitempty"`
	UserEmail        string              `json:"user_email,omitempty"`
	Seats            []BookingSeatDetail `json:"seats"`
}

const bookingDetailQuery = `SELECT b.id, b.booking_reference, b.user_id, b.event_id,
	       e.title, e.date, e.time, e.location,
	       b.total_amount_cents, b.payment_id, b.payment_status, b.booking_status,
	       b.qr_code, b.created_at
	FROM bookings b
	JOIN events e ON e.id = b.event_id`

func (r *BookingRepo) scanDetail(rows *sql.Rows) (*BookingDetail, error) {
	var d BookingDetail
	var payID, ticket sql.NullString
	var date, created time.Time
	if err := rows.Scan(
		&d.ID, &d.Reference, &d.UserID, &d.EventID,
		&d.EventTitle, &date, &d.EventTime, &d.Location,
		&d.TotalAmountCents, &payID, &d.PaymentStatus, &d.BookingStatus,
		&ticket, &created,
	); err != nil {
		return nil, err
	}
	if payID.Valid {
		p := payID.String
		d.PaymentID = &p
	}
	d.TicketRef = ticket.String
	d.EventDate = date.UTC().Format("2006-01-02")
	d.CreatedAt = created.UTC().Format(time.RFC3339)
	d.Seats = []BookingSeatDetail{}
	return &d, nil
}

// attachSeats populates the Seats slice of every detail in one query.
func (r *BookingRepo) attachSeats(ctx context.Context, details []*BookingDetail) error {
	if len(details) == 0 {
		return nil
	}
	index := make(map[uint64]*BookingDetail, len(details))
	ids := make([]any, 0, len(details))
	for _, d := range details {
		index[d.ID] = d
		ids = append(ids, d.ID)
	}
	q := `SELECT bs.booking_id, bs.seat_id, s.row_label, s.seat_number, s.category, bs.price_cents
	      FROM booking_seats bs
	      JOIN seats s ON s.id = bs.seat_id
	      WHERE bs.booking_id IN (` + placeholders(len(ids)) + `)
	      ORDER BY bs.booking_id, s.row_label, s.seat_number`
	rows, err := r.db.QueryContext(ctx, q, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var bookingID uint64
		var s BookingSeatDetail
		if err := rows.Scan(&bookingID, &s.SeatID, &s.RowLabel, &s.SeatNumber, &s.Category, &s.PriceCents); err != nil {
			return err
		}
		if d, ok := index[bookingID]; ok {
			d.Seats = append(d.Seats, s)
		}
	}
	return rows.Err()
}

// GetDetail returns one booking with event and seat information, or
// ErrBookingNotFound. Ownership checks are performed by the caller, which
// knows the requester's identity and role.
func (r *BookingRepo) GetDetail(ctx context.Context, id uint64) (*BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, bookingDetailQuery+` WHERE b.id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrBookingNotFound
	}
	d, err := r.scanDetail(rows)
	if err != nil {
		return nil, err
	}
	rows.Close()
	if err := r.attachSeats(ctx, []*BookingDetail{d}); err != nil {
		return nil, err
	}
	return d, nil
}

// ListByUser returns all bookings for a user, newest first, with seats
// embedded.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]*BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, bookingDetailQuery+` WHERE b.user_id = ? ORDER BY b.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]*BookingDetail, 0)
	for rows.Next() {
		d, err := r.scanDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()
	if err := r.attachSeats(ctx, details); err != nil {
		return nil, err
	}
	return details, nil
}

// ListAll returns every booking with buyer identity attached, newest
// first. Admin-only at the handler level.
func (r *BookingRepo) ListAll(ctx context.Context) ([]*BookingDetail, error) {
	q := `SELECT b.id, b.booking_reference, b.user_id, b.event_id,
	             e.title, e.date, e.time, e.location,
	             b.total_amount_cents, b.payment_id, b.payment_status, b.booking_status,
	             b.qr_code, b.created_at, u.name, u.email
	      FROM bookings b
	      JOIN events e ON e.id = b.event_id
	      JOIN users u ON u.id = b.user_id
	      ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]*BookingDetail, 0)
	for rows.Next() {
		var d BookingDetail
		var payID, ticket sql.NullString
		var date, created time.Time
		if err := rows.Scan(
			&d.ID, &d.Reference, &d.UserID, &d.EventID,
			&d.EventTitle, &date, &d.EventTime, &d.Location,
			&d.TotalAmountCents, &payID, &d.PaymentStatus, &d.BookingStatus,
			&ticket, &created, &d.UserName, &d.UserEmail,
		); err != nil {
			return nil, err
		}
		if payID.Valid {
			p := payID.String
			d.PaymentID = &p
		}
		d.TicketRef = ticket.String
		d.EventDate = date.UTC().Format("2006-01-02")
		d.CreatedAt = created.UTC().Format(time.RFC3339)
		d.Seats = []BookingSeatDetail{}
		details = append(details, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()
	if err := r.attachSeats(ctx, details); err != nil {
		return nil, err
	}
	return details, nil
}

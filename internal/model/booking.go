package model

import "time"

// Payment statuses for bookings.payment_status.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Booking statuses for bookings.booking_status.
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Booking is the durable receipt of a committed reservation transaction.
// TotalAmountCents is the sum of the reserved seats' prices at commit time.
// PaymentID is an opaque caller-supplied reference; no gateway is involved.
// TicketRef points at the generated QR artifact and may be empty when
// artifact generation failed after commit (the booking stays valid).
type Booking struct {
	ID               uint64    `json:"id"`
	Reference        string    `json:"booking_reference"`
	UserID           uint64    `json:"user_id"`
	EventID          uint64    `json:"event_id"`
	TotalAmountCents uint32    `json:"total_amount_cents"`
	PaymentID        *string   `json:"payment_id,omitempty"`
	PaymentStatus    string    `json:"payment_status"`
	BookingStatus    string    `json:"booking_status"`
	TicketRef        string    `json:"qr_code,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// BookingSeat links a booking to one reserved seat, recording the price
// locked in at commit time.
type BookingSeat struct {
	BookingID  uint64 `json:"booking_id"`
	SeatID     uint64 `json:"seat_id"`
	PriceCents uint32 `json:"price_cents"`
}

// Package queue defines message payloads exchanged over the message broker
// and the background consumer that processes them.
package queue

// BookingConfirmedEvent is published when a booking transaction commits.
// It carries enough information for downstream consumers to log, notify,
// or feed analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID        uint64   `json:"booking_id"`
	Reference        string   `json:"booking_reference"`
	UserID           uint64   `json:"user_id"`
	EventID          uint64   `json:"event_id"`
	EventTitle       string   `json:"event_title"`
	SeatIDs          []uint64 `json:"seat_ids"`
	TotalAmountCents uint32   `json:"total_amount_cents"`
	PaymentStatus    string   `json:"payment_status"`
	ConfirmedAt      string   `json:"confirmed_at"`
}

package model

// Seat statuses as stored in seats.status. `selected` is advisory only:
// it reflects an in-progress pick broadcast over the live channel and is
// never consulted by the booking transaction, which re-reads seats from
// `available` under lock.
const (
	SeatAvailable = "available"
	SeatSelected  = "selected"
	SeatBooked    = "booked"
)

// Seat is the smallest unit of inventory for an event. The price is fixed
// when the seat map is generated; bookings copy it into booking_seats so
// later price changes never affect historical bookings.
type Seat struct {
	ID         uint64  `json:"id"`
	EventID    uint64  `json:"event_id"`
	RowLabel   string  `json:"row"`
	SeatNumber uint32  `json:"seat_number"`
	Category   string  `json:"category"`
	PriceCents uint32  `json:"price_cents"`
	Status     string  `json:"status"`
	HolderID   *uint64 `json:"user_id,omitempty"` // advisory holder while status is `selected`
}

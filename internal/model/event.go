package model

import "time"

// Event represents a bookable event as stored in the `events` table.
// TotalSeats and AvailableSeats are denormalized counters; AvailableSeats
// is mutated exclusively by the booking transaction (decrement on reserve,
// increment on cancel) and must always equal TotalSeats minus the number
// of seats whose status is `booked`.
//
// Date and Time mirror the DATE and TIME columns and are kept as strings
// in the wire formats the database returns ("2006-01-02" / "15:04:05").
type Event struct {
	ID             uint64    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Image          string    `json:"image,omitempty"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	Location       string    `json:"location"`
	PriceCents     uint32    `json:"price_cents"`
	Category       string    `json:"category"`
	TotalSeats     uint32    `json:"total_seats"`
	AvailableSeats uint32    `json:"available_seats"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

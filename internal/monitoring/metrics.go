// Package monitoring exposes Prometheus metrics for the booking core.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BookingsConfirmed counts committed booking transactions.
	BookingsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_confirmed_total",
		Help: "Number of booking transactions committed.",
	})

	// BookingsCancelled counts committed cancellations.
	BookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_cancelled_total",
		Help: "Number of bookings cancelled.",
	})

	// SeatConflicts counts reservations aborted because a requested seat
	// was no longer available. These are the losers of the seat race, not
	// server errors.
	SeatConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seat_reservation_conflicts_total",
		Help: "Number of reservations aborted due to unavailable seats.",
	})

	// SeatsBooked counts individual seats moved to booked.
	SeatsBooked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seats_booked_total",
		Help: "Number of seats transitioned to booked.",
	})

	// PresenceConnections tracks currently connected live-channel viewers.
	PresenceConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "presence_connections",
		Help: "Currently connected live seat-map viewers.",
	})
)

// Handler returns the HTTP handler serving the /metrics endpoint.
func Handler() http.Handler { return promhttp.Handler() }

// Package repository defines sentinel error values reused across
// repositories and the booking service. Handlers translate them into
// HTTP responses: not-found errors become 404, ErrSeatUnavailable and
// ErrAlreadyCancelled become 400 and ErrForbidden becomes 403.
package repository

import "errors"

// ErrEventNotFound is returned when an event lookup yields no rows.
var ErrEventNotFound = errors.New("event not found")

// ErrBookingNotFound is returned when a booking does not exist or when the
// caller is neither its owner nor an admin. Ownership mismatches are
// reported as not-found on purpose so the API does not leak which booking
// IDs exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrSeatUnavailable is returned by the booking transaction when at least
// one requested seat is no longer available. The whole transaction is
// rolled back; the caller should re-fetch the seat map and re-select.
var ErrSeatUnavailable = errors.New("one or more selected seats are not available")

// ErrAlreadyCancelled guards cancellation idempotency: cancelling a booking
// twice reports this on the second call and changes no state.
var ErrAlreadyCancelled = errors.New("booking is already cancelled")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they may not touch. Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrEmailExists is returned when registering with an email address that
// is already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when a user lookup yields no rows.
var ErrUserNotFound = errors.New("user not found")

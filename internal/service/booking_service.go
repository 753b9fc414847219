// Package service holds the booking core: the transactional reservation
// and cancellation flows that own every seat-status transition and every
// adjustment of the per-event availability counter.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/monitoring"
	"github.com/iliyamo/event-ticket-booking/internal/queue"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

// ErrInvalidSeatSelection is returned when a reservation request names no
// seats or names the same seat twice.
var ErrInvalidSeatSelection = errors.New("invalid seat selection")

// UnitOfWork runs a function inside one database transaction.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// EventStore is the slice of event persistence the booking flow needs.
type EventStore interface {
	GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Event, error)
	AdjustAvailableTx(ctx context.Context, tx *sql.Tx, id uint64, delta int) error
}

// SeatStore is the slice of seat persistence the booking flow needs. All
// methods run inside the caller's transaction.
type SeatStore interface {
	AvailableForUpdateTx(ctx context.Context, tx *sql.Tx, eventID uint64, ids []uint64) ([]model.Seat, error)
	ReleaseSelectionsTx(ctx context.Context, tx *sql.Tx, eventID uint64, ids []uint64, userID uint64) error
	MarkBookedTx(ctx context.Context, tx *sql.Tx, eventID uint64, ids []uint64, userID uint64) error
	MarkAvailableTx(ctx context.Context, tx *sql.Tx, ids []uint64) error
}

// BookingStore is the slice of booking persistence the booking flow needs.
type BookingStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error
	AddSeatsBulkTx(ctx context.Context, tx *sql.Tx, seats []model.BookingSeat) error
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error)
	SeatIDsTx(ctx context.Context, tx *sql.Tx, bookingID uint64) ([]uint64, error)
	MarkCancelledTx(ctx context.Context, tx *sql.Tx, id uint64) error
	SetTicketRef(ctx context.Context, id uint64, ref string) error
}

// TicketGenerator produces the durable ticket artifact after commit.
type TicketGenerator interface {
	Generate(b *model.Booking, seatIDs []uint64) (string, error)
}

// Broadcaster pushes seat-status changes to live channel subscribers.
type Broadcaster interface {
	PublishBooked(eventID uint64, seatIDs []uint64)
	PublishAvailable(eventID uint64, seatIDs []uint64)
}

// ConfirmedPublisher hands a confirmed booking to the message broker.
type ConfirmedPublisher func(ctx context.Context, ev queue.BookingConfirmedEvent) error

// BookingService coordinates the reserve and cancel transactions. The
// all-or-nothing guarantee lives here: seat writes, the booking record and
// the availability counter move in one transaction or not at all.
type BookingService struct {
	uow      UnitOfWork
	events   EventStore
	seats    SeatStore
	bookings BookingStore
	tickets  TicketGenerator
	hub      Broadcaster
	publish  ConfirmedPublisher
}

// NewBookingService wires the booking core. tickets, hub and publish may
// be nil; the corresponding post-commit step is skipped.
func NewBookingService(uow UnitOfWork, events EventStore, seats SeatStore, bookings BookingStore,
	tickets TicketGenerator, hub Broadcaster, publish ConfirmedPublisher) *BookingService {
	return &BookingService{
		uow:      uow,
		events:   events,
		seats:    seats,
		bookings: bookings,
		tickets:  tickets,
		hub:      hub,
		publish:  publish,
	}
}

// ReserveInput is one reservation request.
type ReserveInput struct {
	UserID    uint64
	EventID   uint64
	SeatIDs   []uint64
	PaymentID *string
}

// Reserve books the requested seats for a user. Either every requested
// seat is available and all of them become booked together with a
// confirmed booking record and a decremented availability counter, or
// nothing changes and repository.ErrSeatUnavailable is returned.
//
// A seat the requester has advisorily selected through the live channel
// counts as available to them: their own selections are released inside
// the same transaction before the availability re-read. Another user's
// selection blocks the seat and fails the reservation.
func (s *BookingService) Reserve(ctx context.Context, in ReserveInput) (*model.Booking, error) {
	if err := validateSeatIDs(in.SeatIDs); err != nil {
		return nil, err
	}

	var booking *model.Booking
	var event *model.Event

	err := s.uow.Run(ctx, func(tx *sql.Tx) error {
		ev, err := s.events.GetByIDTx(ctx, tx, in.EventID)
		if err != nil {
			return err
		}
		event = ev

		if err := s.seats.ReleaseSelectionsTx(ctx, tx, in.EventID, in.SeatIDs, in.UserID); err != nil {
			return err
		}

		seats, err := s.seats.AvailableForUpdateTx(ctx, tx, in.EventID, in.SeatIDs)
		if err != nil {
			return err
		}
		if len(seats) != len(in.SeatIDs) {
			return repository.ErrSeatUnavailable
		}

		reference, err := repository.NewBookingReference()
		if err != nil {
			return err
		}

		var total uint32
		for _, seat := range seats {
			total += seat.PriceCents
		}

		b := &model.Booking{
			Reference:        reference,
			UserID:           in.UserID,
			EventID:          in.EventID,
			TotalAmountCents: total,
			PaymentID:        in.PaymentID,
			PaymentStatus:    paymentStatus(in.PaymentID),
			BookingStatus:    model.BookingConfirmed,
		}
		if err := s.bookings.CreateTx(ctx, tx, b); err != nil {
			return err
		}

		links := make([]model.BookingSeat, 0, len(seats))
		for _, seat := range seats {
			links = append(links, model.BookingSeat{
				BookingID:  b.ID,
				SeatID:     seat.ID,
				PriceCents: seat.PriceCents,
			})
		}
		if err := s.bookings.AddSeatsBulkTx(ctx, tx, links); err != nil {
			return err
		}
		if err := s.seats.MarkBookedTx(ctx, tx, in.EventID, in.SeatIDs, in.UserID); err != nil {
			return err
		}
		if err := s.events.AdjustAvailableTx(ctx, tx, in.EventID, -len(in.SeatIDs)); err != nil {
			return err
		}

		booking = b
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrSeatUnavailable) {
			monitoring.SeatConflicts.Inc()
		}
		return nil, err
	}

	monitoring.BookingsConfirmed.Inc()
	monitoring.SeatsBooked.Add(float64(len(in.SeatIDs)))

	s.afterReserve(ctx, booking, event, in.SeatIDs)
	return booking, nil
}

// afterReserve runs the best-effort post-commit steps. The booking is
// already durable; failures here are logged and never surfaced.
func (s *BookingService) afterReserve(ctx context.Context, b *model.Booking, ev *model.Event, seatIDs []uint64) {
	if s.tickets != nil {
		ref, err := s.tickets.Generate(b, seatIDs)
		if err != nil {
			log.Printf("booking %d: ticket artifact generation failed: %v", b.ID, err)
		} else if err := s.bookings.SetTicketRef(ctx, b.ID, ref); err != nil {
			log.Printf("booking %d: storing ticket ref failed: %v", b.ID, err)
		} else {
			b.TicketRef = ref
		}
	}

	if s.hub != nil {
		s.hub.PublishBooked(b.EventID, seatIDs)
	}

	if s.publish != nil {
		msg := queue.BookingConfirmedEvent{
			BookingID:        b.ID,
			Reference:        b.Reference,
			UserID:           b.UserID,
			EventID:          b.EventID,
			EventTitle:       ev.Title,
			SeatIDs:          seatIDs,
			TotalAmountCents: b.TotalAmountCents,
			PaymentStatus:    b.PaymentStatus,
			ConfirmedAt:      time.Now().UTC().Format(time.RFC3339),
		}
		go func() {
			if err := s.publish(context.Background(), msg); err != nil {
				log.Printf("booking %d: confirmed-event publish failed: %v", msg.BookingID, err)
			}
		}()
	}
}

// Cancel voids a booking and returns its seats to the open pool. Only the
// booking owner or an admin may cancel; an unauthorized requester gets
// repository.ErrBookingNotFound so booking IDs are not probeable. A
// second cancel of the same booking returns repository.ErrAlreadyCancelled
// and changes nothing.
func (s *BookingService) Cancel(ctx context.Context, bookingID, userID uint64, role string) error {
	var eventID uint64
	var seatIDs []uint64

	err := s.uow.Run(ctx, func(tx *sql.Tx) error {
		b, err := s.bookings.GetForUpdateTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if role != model.RoleAdmin && b.UserID != userID {
			return repository.ErrBookingNotFound
		}
		if b.BookingStatus == model.BookingCancelled {
			return repository.ErrAlreadyCancelled
		}

		ids, err := s.bookings.SeatIDsTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if err := s.bookings.MarkCancelledTx(ctx, tx, bookingID); err != nil {
			return err
		}
		if err := s.seats.MarkAvailableTx(ctx, tx, ids); err != nil {
			return err
		}
		if err := s.events.AdjustAvailableTx(ctx, tx, b.EventID, len(ids)); err != nil {
			return err
		}

		eventID = b.EventID
		seatIDs = ids
		return nil
	})
	if err != nil {
		return err
	}

	monitoring.BookingsCancelled.Inc()
	if s.hub != nil {
		s.hub.PublishAvailable(eventID, seatIDs)
	}
	return nil
}

func validateSeatIDs(ids []uint64) error {
	if len(ids) == 0 {
		return ErrInvalidSeatSelection
	}
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return ErrInvalidSeatSelection
		}
		seen[id] = struct{}{}
	}
	return nil
}

func paymentStatus(paymentID *string) string {
	if paymentID != nil && *paymentID != "" {
		return model.PaymentCompleted
	}
	return model.PaymentPending
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

// fakeStore keeps events, seats and bookings in memory. The fake unit of
// work snapshots the whole store before running the transaction body and
// restores it on error, so rollback semantics match the real database.
type fakeStore struct {
	events       map[uint64]*model.Event
	seats        map[uint64]*model.Seat
	bookings     map[uint64]*model.Booking
	bookingSeats map[uint64][]model.BookingSeat
	nextBooking  uint64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:       make(map[uint64]*model.Event),
		seats:        make(map[uint64]*model.Seat),
		bookings:     make(map[uint64]*model.Booking),
		bookingSeats: make(map[uint64][]model.BookingSeat),
		nextBooking:  1,
	}
}

func (s *fakeStore) snapshot() *fakeStore {
	cp := newFakeStore()
	cp.nextBooking = s.nextBooking
	for id, ev := range s.events {
		e := *ev
		cp.events[id] = &e
	}
	for id, st := range s.seats {
		c := *st
		if st.HolderID != nil {
			h := *st.HolderID
			c.HolderID = &h
		}
		cp.seats[id] = &c
	}
	for id, b := range s.bookings {
		c := *b
		cp.bookings[id] = &c
	}
	for id, links := range s.bookingSeats {
		cp.bookingSeats[id] = append([]model.BookingSeat(nil), links...)
	}
	return cp
}

func (s *fakeStore) restore(from *fakeStore) {
	s.events = from.events
	s.seats = from.seats
	s.bookings = from.bookings
	s.bookingSeats = from.bookingSeats
	s.nextBooking = from.nextBooking
}

// EventStore

func (s *fakeStore) GetByIDTx(_ context.Context, _ *sql.Tx, id uint64) (*model.Event, error) {
	ev, ok := s.events[id]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	cp := *ev
	return &cp, nil
}

func (s *fakeStore) AdjustAvailableTx(_ context.Context, _ *sql.Tx, id uint64, delta int) error {
	ev, ok := s.events[id]
	if !ok {
		return repository.ErrEventNotFound
	}
	next := int(ev.AvailableSeats) + delta
	if next < 0 {
		return repository.ErrSeatUnavailable
	}
	ev.AvailableSeats = uint32(next)
	return nil
}

// SeatStore

func (s *fakeStore) AvailableForUpdateTx(_ context.Context, _ *sql.Tx, eventID uint64, ids []uint64) ([]model.Seat, error) {
	var out []model.Seat
	for _, id := range ids {
		seat, ok := s.seats[id]
		if ok && seat.EventID == eventID && seat.Status == model.SeatAvailable {
			out = append(out, *seat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) ReleaseSelectionsTx(_ context.Context, _ *sql.Tx, eventID uint64, ids []uint64, userID uint64) error {
	for _, id := range ids {
		seat, ok := s.seats[id]
		if ok && seat.EventID == eventID && seat.Status == model.SeatSelected &&
			seat.HolderID != nil && *seat.HolderID == userID {
			seat.Status = model.SeatAvailable
			seat.HolderID = nil
		}
	}
	return nil
}

func (s *fakeStore) MarkBookedTx(_ context.Context, _ *sql.Tx, eventID uint64, ids []uint64, userID uint64) error {
	for _, id := range ids {
		if seat, ok := s.seats[id]; ok && seat.EventID == eventID {
			seat.Status = model.SeatBooked
			h := userID
			seat.HolderID = &h
		}
	}
	return nil
}

func (s *fakeStore) MarkAvailableTx(_ context.Context, _ *sql.Tx, ids []uint64) error {
	for _, id := range ids {
		if seat, ok := s.seats[id]; ok {
			seat.Status = model.SeatAvailable
			seat.HolderID = nil
		}
	}
	return nil
}

// BookingStore

func (s *fakeStore) CreateTx(_ context.Context, _ *sql.Tx, b *model.Booking) error {
	b.ID = s.nextBooking
	s.nextBooking++
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *fakeStore) AddSeatsBulkTx(_ context.Context, _ *sql.Tx, seats []model.BookingSeat) error {
	for _, bs := range seats {
		s.bookingSeats[bs.BookingID] = append(s.bookingSeats[bs.BookingID], bs)
	}
	return nil
}

func (s *fakeStore) GetForUpdateTx(_ context.Context, _ *sql.Tx, id uint64) (*model.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *fakeStore) SeatIDsTx(_ context.Context, _ *sql.Tx, bookingID uint64) ([]uint64, error) {
	var ids []uint64
	for _, bs := range s.bookingSeats[bookingID] {
		ids = append(ids, bs.SeatID)
	}
	return ids, nil
}

func (s *fakeStore) MarkCancelledTx(_ context.Context, _ *sql.Tx, id uint64) error {
	if b, ok := s.bookings[id]; ok {
		b.BookingStatus = model.BookingCancelled
	}
	return nil
}

func (s *fakeStore) SetTicketRef(_ context.Context, id uint64, ref string) error {
	if b, ok := s.bookings[id]; ok {
		b.TicketRef = ref
	}
	return nil
}

// fakeUow serializes transaction bodies with a mutex, the in-memory stand-in
// for row locking, and rolls the store back when the body fails.
type fakeUow struct {
	mu    sync.Mutex
	store *fakeStore
}

func (u *fakeUow) Run(_ context.Context, fn func(tx *sql.Tx) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	snap := u.store.snapshot()
	if err := fn(nil); err != nil {
		u.store.restore(snap)
		return err
	}
	return nil
}

type fakeHub struct {
	mu        sync.Mutex
	booked    [][]uint64
	available [][]uint64
}

func (h *fakeHub) PublishBooked(_ uint64, seatIDs []uint64) {
	h.mu.Lock()
	h.booked = append(h.booked, seatIDs)
	h.mu.Unlock()
}

func (h *fakeHub) PublishAvailable(_ uint64, seatIDs []uint64) {
	h.mu.Lock()
	h.available = append(h.available, seatIDs)
	h.mu.Unlock()
}

type fakeTickets struct {
	err  error
	refs []string
}

func (t *fakeTickets) Generate(b *model.Booking, _ []uint64) (string, error) {
	if t.err != nil {
		return "", t.err
	}
	ref := "/uploads/qrcodes/booking-test.png"
	t.refs = append(t.refs, ref)
	return ref, nil
}

func seedStore(t *testing.T) *fakeStore {
	t.Helper()
	store := newFakeStore()
	store.events[1] = &model.Event{
		ID: 1, Title: "Open Air Concert", PriceCents: 5000,
		TotalSeats: 4, AvailableSeats: 4,
	}
	for i := uint64(1); i <= 4; i++ {
		store.seats[i] = &model.Seat{
			ID: i, EventID: 1, RowLabel: "A", SeatNumber: uint32(i),
			Category: "Standard", PriceCents: 5000, Status: model.SeatAvailable,
		}
	}
	return store
}

func newService(store *fakeStore, hub Broadcaster, tickets TicketGenerator) *BookingService {
	return NewBookingService(&fakeUow{store: store}, store, store, store, tickets, hub, nil)
}

func TestReserveSuccess(t *testing.T) {
	store := seedStore(t)
	hub := &fakeHub{}
	svc := newService(store, hub, nil)

	b, err := svc.Reserve(context.Background(), ReserveInput{
		UserID: 7, EventID: 1, SeatIDs: []uint64{1, 2},
	})
	require.NoError(t, err)
	require.NotNil(t, b)

	assert.Equal(t, uint32(10000), b.TotalAmountCents)
	assert.Equal(t, model.BookingConfirmed, b.BookingStatus)
	assert.Equal(t, model.PaymentPending, b.PaymentStatus)
	assert.NotEmpty(t, b.Reference)

	assert.Equal(t, model.SeatBooked, store.seats[1].Status)
	assert.Equal(t, model.SeatBooked, store.seats[2].Status)
	assert.Equal(t, model.SeatAvailable, store.seats[3].Status)
	assert.Equal(t, uint32(2), store.events[1].AvailableSeats)

	links := store.bookingSeats[b.ID]
	require.Len(t, links, 2)
	for _, l := range links {
		assert.Equal(t, uint32(5000), l.PriceCents)
	}

	require.Len(t, hub.booked, 1)
	assert.ElementsMatch(t, []uint64{1, 2}, hub.booked[0])
}

func TestReservePaymentStatusFromReference(t *testing.T) {
	store := seedStore(t)
	svc := newService(store, nil, nil)

	pay := "pay_12345"
	b, err := svc.Reserve(context.Background(), ReserveInput{
		UserID: 7, EventID: 1, SeatIDs: []uint64{1}, PaymentID: &pay,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, b.PaymentStatus)
	require.NotNil(t, b.PaymentID)
	assert.Equal(t, pay, *b.PaymentID)
}

func TestReserveSeatUnavailableLeavesNothingBehind(t *testing.T) {
	store := seedStore(t)
	store.seats[2].Status = model.SeatBooked
	svc := newService(store, &fakeHub{}, nil)

	_, err := svc.Reserve(context.Background(), ReserveInput{
		UserID: 7, EventID: 1, SeatIDs: []uint64{1, 2},
	})
	require.ErrorIs(t, err, repository.ErrSeatUnavailable)

	assert.Equal(t, model.SeatAvailable, store.seats[1].Status)
	assert.Equal(t, uint32(4), store.events[1].AvailableSeats)
	assert.Empty(t, store.bookings)
	assert.Empty(t, store.bookingSeats)
}

func TestReserveValidatesSeatSelection(t *testing.T) {
	store := seedStore(t)
	svc := newService(store, nil, nil)

	_, err := svc.Reserve(context.Background(), ReserveInput{UserID: 7, EventID: 1})
	assert.ErrorIs(t, err, ErrInvalidSeatSelection)

	_, err = svc.Reserve(context.Background(), ReserveInput{
		UserID: 7, EventID: 1, SeatIDs: []uint64{1, 1},
	})
	assert.ErrorIs(t, err, ErrInvalidSeatSelection)
}

func TestReserveUnknownEvent(t *testing.T) {
	store := seedStore(t)
	svc := newService(store, nil, nil)

	_, err := svc.Reserve(context.Background(), ReserveInput{
		UserID: 7, EventID: 99, SeatIDs: []uint64{1},
	})
	assert.ErrorIs(t, err, repository.ErrEventNotFound)
}

func TestReserveOwnAdvisorySelectionDoesNotBlock(t *testing.T) {
	store := seedStore(t)
	holder := uint64(7)
	store.seats[1].Status = model.SeatSelected
	store.seats[1].HolderID = &holder
	svc := newService(store, nil, nil)

	_, err := svc.Reserve(context.Background(), ReserveInput{
		UserID: 7, EventID: 1, SeatIDs: []uint64{1},
	})
	assert.NoError(t, err)
	assert.Equal(t, model.SeatBooked, store.seats[1].Status)
}

func TestReserveOtherUsersSelectionBlocks(t *testing.T) {
	store := seedStore(t)
	other := uint64(99)
	store.seats[1].Status = model.SeatSelected
	store.seats[1].HolderID = &other
	svc := newService(store, nil, nil)

	_, err := svc.Reserve(context.Background(), ReserveInput{
		UserID: 7, EventID: 1, SeatIDs: []uint64{1},
	})
	assert.ErrorIs(t, err, repository.ErrSeatUnavailable)
	assert.Equal(t, model.SeatSelected, store.seats[1].Status)
}

func TestConcurrentOverlappingReservesExactlyOneWins(t *testing.T) {
	store := seedStore(t)
	svc := newService(store, &fakeHub{}, nil)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, user := range []uint64{10, 20} {
		wg.Add(1)
		go func(uid uint64) {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), ReserveInput{
				UserID: uid, EventID: 1, SeatIDs: []uint64{2, 3},
			})
			results <- err
		}(user)
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, repository.ErrSeatUnavailable):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, uint32(2), store.events[1].AvailableSeats)
	assert.Len(t, store.bookings, 1)
}

func TestCancelRestoresSeatsAndCounter(t *testing.T) {
	store := seedStore(t)
	hub := &fakeHub{}
	svc := newService(store, hub, nil)

	b, err := svc.Reserve(context.Background(), ReserveInput{
		UserID: 7, EventID: 1, SeatIDs: []uint64{1, 2},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), b.ID, 7, model.RoleUser))

	assert.Equal(t, model.BookingCancelled, store.bookings[b.ID].BookingStatus)
	assert.Equal(t, model.SeatAvailable, store.seats[1].Status)
	assert.Equal(t, model.SeatAvailable, store.seats[2].Status)
	assert.Equal(t, uint32(4), store.events[1].AvailableSeats)
	require.Len(t, hub.available, 1)
	assert.ElementsMatch(t, []uint64{1, 2}, hub.available[0])
}

func TestCancelTwiceFailsSecondTime(t *testing.T) {
	store := seedStore(t)
	svc := newService(store, nil, nil)

	b, err := svc.Reserve(context.Background(), ReserveInput{
		UserID: 7, EventID: 1, SeatIDs: []uint64{1},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), b.ID, 7, model.RoleUser))
	err = svc.Cancel(context.Background(), b.ID, 7, model.RoleUser)
	assert.ErrorIs(t, err, repository.ErrAlreadyCancelled)
	assert.Equal(t, uint32(4), store.events[1].AvailableSeats)
}

func TestCancelOwnership(t *testing.T) {
	store := seedStore(t)
	svc := newService(store, nil, nil)

	b, err := svc.Reserve(context.Background(), ReserveInput{
		UserID: 7, EventID: 1, SeatIDs: []uint64{1},
	})
	require.NoError(t, err)

	// Another plain user cannot see or cancel the booking.
	err = svc.Cancel(context.Background(), b.ID, 8, model.RoleUser)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
	assert.Equal(t, model.BookingConfirmed, store.bookings[b.ID].BookingStatus)

	// An admin can cancel anyone's booking.
	require.NoError(t, svc.Cancel(context.Background(), b.ID, 999, model.RoleAdmin))
	assert.Equal(t, model.BookingCancelled, store.bookings[b.ID].BookingStatus)
}

func TestCancelUnknownBooking(t *testing.T) {
	store := seedStore(t)
	svc := newService(store, nil, nil)

	err := svc.Cancel(context.Background(), 42, 7, model.RoleUser)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestReserveThenCancelIsIdentity(t *testing.T) {
	store := seedStore(t)
	svc := newService(store, nil, nil)
	before := store.snapshot()

	b, err := svc.Reserve(context.Background(), ReserveInput{
		UserID: 7, EventID: 1, SeatIDs: []uint64{1, 2, 3},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(context.Background(), b.ID, 7, model.RoleUser))

	assert.Equal(t, before.events[1].AvailableSeats, store.events[1].AvailableSeats)
	for id, seat := range before.seats {
		assert.Equal(t, seat.Status, store.seats[id].Status, "seat %d", id)
	}
}

func TestTicketGenerationFailureKeepsBookingValid(t *testing.T) {
	store := seedStore(t)
	tickets := &fakeTickets{err: errors.New("disk full")}
	svc := newService(store, nil, tickets)

	b, err := svc.Reserve(context.Background(), ReserveInput{
		UserID: 7, EventID: 1, SeatIDs: []uint64{1},
	})
	require.NoError(t, err)
	assert.Empty(t, b.TicketRef)
	assert.Equal(t, model.BookingConfirmed, store.bookings[b.ID].BookingStatus)
}

func TestTicketRefStoredOnSuccess(t *testing.T) {
	store := seedStore(t)
	tickets := &fakeTickets{}
	svc := newService(store, nil, tickets)

	b, err := svc.Reserve(context.Background(), ReserveInput{
		UserID: 7, EventID: 1, SeatIDs: []uint64{1},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, b.TicketRef)
	assert.Equal(t, b.TicketRef, store.bookings[b.ID].TicketRef)
}

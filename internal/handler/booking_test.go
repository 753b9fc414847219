package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
	"github.com/iliyamo/event-ticket-booking/internal/service"
)

type mockBookingService struct {
	reserveFn func(ctx context.Context, in service.ReserveInput) (*model.Booking, error)
	cancelFn  func(ctx context.Context, bookingID, userID uint64, role string) error
}

func (m *mockBookingService) Reserve(ctx context.Context, in service.ReserveInput) (*model.Booking, error) {
	return m.reserveFn(ctx, in)
}

func (m *mockBookingService) Cancel(ctx context.Context, bookingID, userID uint64, role string) error {
	return m.cancelFn(ctx, bookingID, userID, role)
}

type mockBookingReader struct {
	getFn     func(ctx context.Context, id uint64) (*repository.BookingDetail, error)
	listFn    func(ctx context.Context, userID uint64) ([]*repository.BookingDetail, error)
	listAllFn func(ctx context.Context) ([]*repository.BookingDetail, error)
}

func (m *mockBookingReader) GetDetail(ctx context.Context, id uint64) (*repository.BookingDetail, error) {
	return m.getFn(ctx, id)
}

func (m *mockBookingReader) ListByUser(ctx context.Context, userID uint64) ([]*repository.BookingDetail, error) {
	return m.listFn(ctx, userID)
}

func (m *mockBookingReader) ListAll(ctx context.Context) ([]*repository.BookingDetail, error) {
	return m.listAllFn(ctx)
}

func newBookingContext(t *testing.T, method, path, body string, userID uint64, role string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	// Claims arrive as float64 after JSON decoding in the JWT middleware.
	c.Set("user_id", float64(userID))
	c.Set("role", role)
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestCreateBookingSuccess(t *testing.T) {
	svc := &mockBookingService{
		reserveFn: func(_ context.Context, in service.ReserveInput) (*model.Booking, error) {
			assert.Equal(t, uint64(7), in.UserID)
			assert.Equal(t, uint64(1), in.EventID)
			assert.Equal(t, []uint64{3, 4}, in.SeatIDs)
			return &model.Booking{
				ID: 11, Reference: "BK-AABBCCDDEE", UserID: 7, EventID: 1,
				TotalAmountCents: 12000, BookingStatus: model.BookingConfirmed,
				PaymentStatus: model.PaymentPending,
				TicketRef:     "/uploads/qrcodes/booking-11.png",
			}, nil
		},
	}
	h := NewBookingHandler(svc, nil)

	c, rec := newBookingContext(t, http.MethodPost, "/v1/bookings",
		`{"eventId":1,"seatIds":[3,4]}`, 7, model.RoleUser)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(11), body["bookingId"])
	assert.Equal(t, float64(12000), body["totalAmount"])
	assert.Equal(t, "/uploads/qrcodes/booking-11.png", body["ticketArtifactRef"])
}

func TestCreateBookingSeatConflict(t *testing.T) {
	svc := &mockBookingService{
		reserveFn: func(context.Context, service.ReserveInput) (*model.Booking, error) {
			return nil, repository.ErrSeatUnavailable
		},
	}
	h := NewBookingHandler(svc, nil)

	c, rec := newBookingContext(t, http.MethodPost, "/v1/bookings",
		`{"eventId":1,"seatIds":[3]}`, 7, model.RoleUser)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "One or more selected seats are not available", decodeBody(t, rec)["message"])
}

func TestCreateBookingUnknownEvent(t *testing.T) {
	svc := &mockBookingService{
		reserveFn: func(context.Context, service.ReserveInput) (*model.Booking, error) {
			return nil, repository.ErrEventNotFound
		},
	}
	h := NewBookingHandler(svc, nil)

	c, rec := newBookingContext(t, http.MethodPost, "/v1/bookings",
		`{"eventId":999,"seatIds":[3]}`, 7, model.RoleUser)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateBookingMissingFields(t *testing.T) {
	h := NewBookingHandler(&mockBookingService{}, nil)

	c, rec := newBookingContext(t, http.MethodPost, "/v1/bookings",
		`{"eventId":1,"seatIds":[]}`, 7, model.RoleUser)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBookingHidesOtherUsersBookings(t *testing.T) {
	reader := &mockBookingReader{
		getFn: func(_ context.Context, id uint64) (*repository.BookingDetail, error) {
			return &repository.BookingDetail{ID: id, UserID: 42}, nil
		},
	}
	h := NewBookingHandler(&mockBookingService{}, reader)

	c, rec := newBookingContext(t, http.MethodGet, "/v1/bookings/5", "", 7, model.RoleUser)
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.Get(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBookingAdminSeesAll(t *testing.T) {
	reader := &mockBookingReader{
		getFn: func(_ context.Context, id uint64) (*repository.BookingDetail, error) {
			return &repository.BookingDetail{ID: id, UserID: 42}, nil
		},
	}
	h := NewBookingHandler(&mockBookingService{}, reader)

	c, rec := newBookingContext(t, http.MethodGet, "/v1/bookings/5", "", 7, model.RoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.Get(c))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCancelBookingAlreadyCancelled(t *testing.T) {
	svc := &mockBookingService{
		cancelFn: func(context.Context, uint64, uint64, string) error {
			return repository.ErrAlreadyCancelled
		},
	}
	h := NewBookingHandler(svc, nil)

	c, rec := newBookingContext(t, http.MethodPut, "/v1/bookings/5/cancel", "", 7, model.RoleUser)
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.Cancel(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Booking is already cancelled", decodeBody(t, rec)["message"])
}

func TestCancelBookingSuccess(t *testing.T) {
	var got struct {
		bookingID, userID uint64
		role              string
	}
	svc := &mockBookingService{
		cancelFn: func(_ context.Context, bookingID, userID uint64, role string) error {
			got.bookingID, got.userID, got.role = bookingID, userID, role
			return nil
		},
	}
	h := NewBookingHandler(svc, nil)

	c, rec := newBookingContext(t, http.MethodPut, "/v1/bookings/5/cancel", "", 7, model.RoleUser)
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.Cancel(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(5), got.bookingID)
	assert.Equal(t, uint64(7), got.userID)
	assert.Equal(t, model.RoleUser, got.role)
}

package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
	"github.com/iliyamo/event-ticket-booking/internal/service"
)

// BookingService is the slice of the booking core the handlers call.
type BookingService interface {
	Reserve(ctx context.Context, in service.ReserveInput) (*model.Booking, error)
	Cancel(ctx context.Context, bookingID, userID uint64, role string) error
}

// BookingReader serves the booking detail views.
type BookingReader interface {
	GetDetail(ctx context.Context, id uint64) (*repository.BookingDetail, error)
	ListByUser(ctx context.Context, userID uint64) ([]*repository.BookingDetail, error)
	ListAll(ctx context.Context) ([]*repository.BookingDetail, error)
}

// BookingHandler exposes the booking endpoints. Writes go through the
// booking service; reads go straight to the repository.
type BookingHandler struct {
	Svc      BookingService
	Bookings BookingReader
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc BookingService, bookings BookingReader) *BookingHandler {
	return &BookingHandler{Svc: svc, Bookings: bookings}
}

type createBookingReq struct {
	EventID   uint64   `json:"eventId"`
	SeatIDs   []uint64 `json:"seatIds"`
	PaymentID *string  `json:"paymentId"`
}

// Create handles POST /v1/bookings. Either every requested seat is booked
// or the request fails with no change.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if req.EventID == 0 || len(req.SeatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Event ID and seat IDs are required"})
	}

	booking, err := h.Svc.Reserve(c.Request().Context(), service.ReserveInput{
		UserID:    userID,
		EventID:   req.EventID,
		SeatIDs:   req.SeatIDs,
		PaymentID: req.PaymentID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSeatSelection):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Event ID and seat IDs are required"})
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Event not found"})
		case errors.Is(err, repository.ErrSeatUnavailable):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "One or more selected seats are not available"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to create booking"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":           "Booking created successfully",
		"bookingId":         booking.ID,
		"bookingReference":  booking.Reference,
		"totalAmount":       booking.TotalAmountCents,
		"ticketArtifactRef": booking.TicketRef,
	})
}

// ListMine handles GET /v1/bookings: the requester's bookings, newest
// first, with seats embedded.
func (h *BookingHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	details, err := h.Bookings.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, details)
}

// Get handles GET /v1/bookings/:id. Only the owner or an admin may read a
// booking; anyone else sees 404.
func (h *BookingHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid booking id"})
	}
	detail, err := h.Bookings.GetDetail(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load booking"})
	}
	if detail.UserID != userID && getRole(c) != model.RoleAdmin {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Booking not found"})
	}
	return c.JSON(http.StatusOK, detail)
}

// Cancel handles PUT /v1/bookings/:id/cancel. Cancelling an already
// cancelled booking fails without touching anything.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid booking id"})
	}
	if err := h.Svc.Cancel(c.Request().Context(), id, userID, getRole(c)); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Booking not found"})
		case errors.Is(err, repository.ErrAlreadyCancelled):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Booking is already cancelled"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to cancel booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Booking cancelled successfully"})
}

// AdminList handles GET /v1/bookings/admin/all. Role gating happens in the
// router.
func (h *BookingHandler) AdminList(c echo.Context) error {
	details, err := h.Bookings.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, details)
}

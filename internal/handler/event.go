package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

// seatRows are the row labels generated for a new event's seat map.
var seatRows = []string{"A", "B", "C", "D", "E", "F", "G", "H"}

// EventHandler exposes the event catalog endpoints.
type EventHandler struct {
	Events *repository.EventRepo
	Seats  *repository.SeatRepo
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(events *repository.EventRepo, seats *repository.SeatRepo) *EventHandler {
	return &EventHandler{Events: events, Seats: seats}
}

// List handles GET /v1/events.
func (h *EventHandler) List(c echo.Context) error {
	events, err := h.Events.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load events"})
	}
	return c.JSON(http.StatusOK, events)
}

// Get handles GET /v1/events/:id, returning the event with its seat map
// embedded.
func (h *EventHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid event id"})
	}
	ctx := c.Request().Context()
	event, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load event"})
	}
	seats, err := h.Seats.ListByEvent(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load seats"})
	}
	type eventWithSeats struct {
		model.Event
		Seats []model.Seat `json:"seats"`
	}
	return c.JSON(http.StatusOK, eventWithSeats{Event: *event, Seats: seats})
}

type eventReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	PriceCents  uint32 `json:"price_cents"`
	Category    string `json:"category"`
	TotalSeats  uint32 `json:"total_seats"`
}

func (r *eventReq) validate() error {
	if strings.TrimSpace(r.Title) == "" || r.Date == "" || r.Time == "" ||
		strings.TrimSpace(r.Location) == "" || r.PriceCents == 0 ||
		strings.TrimSpace(r.Category) == "" {
		return errors.New("missing required fields")
	}
	return nil
}

// Create handles POST /v1/events (admin). A seat map is generated along
// with the event: rows A through H, seats numbered from 1, the first two
// rows Premium at 1.5x base price, the next two Executive at 1.2x, the
// rest Standard.
func (h *EventHandler) Create(c echo.Context) error {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if err := req.validate(); err != nil || req.TotalSeats == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Please provide all required fields"})
	}

	event := &model.Event{
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		Image:          req.Image,
		Date:           req.Date,
		Time:           req.Time,
		Location:       strings.TrimSpace(req.Location),
		PriceCents:     req.PriceCents,
		Category:       req.Category,
		TotalSeats:     req.TotalSeats,
		AvailableSeats: req.TotalSeats,
	}

	ctx := c.Request().Context()
	if err := h.Events.Create(ctx, event); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to create event"})
	}
	if err := h.Seats.CreateBulk(ctx, generateSeats(event)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to create seats"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Event created successfully",
		"eventId": event.ID,
	})
}

// generateSeats lays out the seat map for a freshly created event.
func generateSeats(ev *model.Event) []model.Seat {
	total := int(ev.TotalSeats)
	perRow := (total + len(seatRows) - 1) / len(seatRows)
	seats := make([]model.Seat, 0, total)
	for rowIndex, row := range seatRows {
		for num := 1; num <= perRow; num++ {
			if len(seats) >= total {
				return seats
			}
			category := "Standard"
			price := ev.PriceCents
			switch {
			case rowIndex < 2:
				category = "Premium"
				price = price + price/2
			case rowIndex < 4:
				category = "Executive"
				price = price + price/5
			}
			seats = append(seats, model.Seat{
				EventID:    ev.ID,
				RowLabel:   row,
				SeatNumber: uint32(num),
				Category:   category,
				PriceCents: price,
				Status:     model.SeatAvailable,
			})
		}
	}
	return seats
}

// Update handles PUT /v1/events/:id (admin). Only catalog fields change;
// the seat map and counters are untouched.
func (h *EventHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid event id"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if err := req.validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Please provide all required fields"})
	}
	event := &model.Event{
		ID:          id,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Image:       req.Image,
		Date:        req.Date,
		Time:        req.Time,
		Location:    strings.TrimSpace(req.Location),
		PriceCents:  req.PriceCents,
		Category:    req.Category,
	}
	if err := h.Events.Update(c.Request().Context(), event); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to update event"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Event updated successfully"})
}

// Delete handles DELETE /v1/events/:id (admin). Seats cascade with the
// event row.
func (h *EventHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid event id"})
	}
	if err := h.Events.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to delete event"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Event deleted successfully"})
}

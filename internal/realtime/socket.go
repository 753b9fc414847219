package realtime

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"golang.org/x/net/websocket"

	"github.com/iliyamo/event-ticket-booking/internal/model"
	"github.com/iliyamo/event-ticket-booking/internal/repository"
)

// AdvisorySeats is the slice of seat persistence the live channel needs:
// the guarded advisory toggles and the disconnect cleanup. None of these
// can touch a booked seat.
type AdvisorySeats interface {
	SelectAdvisory(ctx context.Context, eventID, seatID, holderID uint64) (bool, error)
	DeselectAdvisory(ctx context.Context, eventID, seatID uint64) (bool, error)
	ClearSelections(ctx context.Context, eventID uint64, ids []uint64) error
}

// EventLookup verifies that an event exists before a session joins it.
type EventLookup interface {
	GetByID(ctx context.Context, id uint64) (*model.Event, error)
}

// LiveHandler upgrades HTTP requests to live-channel WebSocket sessions.
type LiveHandler struct {
	hub    *Hub
	seats  AdvisorySeats
	events EventLookup
}

// NewLiveHandler wires the live channel endpoint.
func NewLiveHandler(hub *Hub, seats AdvisorySeats, events EventLookup) *LiveHandler {
	return &LiveHandler{hub: hub, seats: seats, events: events}
}

// Serve handles GET /v1/events/:id/live. The session joins the event's
// room, receives seatUpdated/seatsBooked frames, and may send selectSeat
// frames to toggle advisory selections and supportMessage frames for the
// support echo. Selections held by the session are released when it
// disconnects.
func (h *LiveHandler) Serve(c echo.Context) error {
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid event id"})
	}
	if _, err := h.events.GetByID(c.Request().Context(), eventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "failed to load event"})
	}

	websocket.Handler(func(ws *websocket.Conn) {
		h.session(ws, eventID)
	}).ServeHTTP(c.Response(), c.Request())
	return nil
}

// session runs one connected client until it disconnects.
func (h *LiveHandler) session(ws *websocket.Conn, eventID uint64) {
	defer func() { _ = ws.Close() }()

	sub := h.hub.Join(eventID)
	held := make(map[uint64]struct{})

	// Single writer goroutine; all outbound frames flow through sub.C.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for f := range sub.C {
			if err := websocket.JSON.Send(ws, f); err != nil {
				return
			}
		}
	}()

	for {
		var f Frame
		if err := websocket.JSON.Receive(ws, &f); err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("live channel: receive on event %d: %v", eventID, err)
			}
			break
		}
		h.handleFrame(sub, eventID, f, held)
	}

	h.cleanup(eventID, held)
	h.hub.Leave(sub)
	<-done
}

func (h *LiveHandler) handleFrame(sub *Subscriber, eventID uint64, f Frame, held map[uint64]struct{}) {
	ctx := context.Background()
	switch f.Type {
	case FrameSelectSeat:
		switch f.Action {
		case "select":
			ok, err := h.seats.SelectAdvisory(ctx, eventID, f.SeatID, f.UserID)
			if err != nil {
				log.Printf("live channel: select seat %d: %v", f.SeatID, err)
				return
			}
			if ok {
				held[f.SeatID] = struct{}{}
				h.hub.PublishSelect(eventID, f.SeatID, f.UserID)
			}
		case "deselect":
			ok, err := h.seats.DeselectAdvisory(ctx, eventID, f.SeatID)
			if err != nil {
				log.Printf("live channel: deselect seat %d: %v", f.SeatID, err)
				return
			}
			if ok {
				delete(held, f.SeatID)
				h.hub.PublishDeselect(eventID, f.SeatID)
			}
		}
	case FrameSupportMessage:
		sub.TrySend(Frame{
			Type:    FrameSupportResponse,
			Message: "Thank you for your message. Our support team will get back to you shortly.",
		})
	}
}

// cleanup releases every advisory selection the session still holds and
// announces the seats as available again.
func (h *LiveHandler) cleanup(eventID uint64, held map[uint64]struct{}) {
	if len(held) == 0 {
		return
	}
	ids := make([]uint64, 0, len(held))
	for id := range held {
		ids = append(ids, id)
	}
	if err := h.seats.ClearSelections(context.Background(), eventID, ids); err != nil {
		log.Printf("live channel: clearing selections on event %d: %v", eventID, err)
		return
	}
	h.hub.PublishAvailable(eventID, ids)
}

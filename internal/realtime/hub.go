// Package realtime implements the live presence channel: per-event rooms
// of WebSocket subscribers that see advisory seat selections and committed
// bookings as they happen. Presence state is advisory only; the booking
// transaction never consults it and its messages carry no reservation
// authority.
package realtime

import (
	"sync"

	"github.com/iliyamo/event-ticket-booking/internal/monitoring"
)

// Frame is one message on the live channel, in both directions.
type Frame struct {
	Type    string   `json:"type"`
	SeatID  uint64   `json:"seat_id,omitempty"`
	SeatIDs []uint64 `json:"seat_ids,omitempty"`
	Action  string   `json:"action,omitempty"`
	Status  string   `json:"status,omitempty"`
	UserID  uint64   `json:"user_id,omitempty"`
	Message string   `json:"message,omitempty"`
}

// Frame types pushed to subscribers.
const (
	FrameSeatUpdated     = "seatUpdated"
	FrameSeatsBooked     = "seatsBooked"
	FrameSupportResponse = "supportResponse"
)

// Frame types accepted from clients.
const (
	FrameSelectSeat     = "selectSeat"
	FrameSupportMessage = "supportMessage"
)

const subscriberBuffer = 32

// Subscriber is one connected live-channel session. Frames are delivered
// on C; a subscriber that cannot keep up has frames dropped rather than
// blocking the room.
type Subscriber struct {
	EventID uint64
	C       chan Frame
}

// TrySend delivers a frame to this subscriber only, dropping it if the
// buffer is full.
func (s *Subscriber) TrySend(f Frame) {
	select {
	case s.C <- f:
	default:
	}
}

// RemoteSink forwards frames to other server instances.
type RemoteSink interface {
	PublishRemote(eventID uint64, f Frame)
}

// Hub fans frames out to the subscribers of each event room. A Hub is
// safe for concurrent use. When a RemoteSink is attached, locally
// published frames are also forwarded to peer instances; frames arriving
// from peers enter through HandleRemote and are only delivered locally.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[uint64]map[*Subscriber]struct{}
	remote RemoteSink
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[uint64]map[*Subscriber]struct{})}
}

// SetRemote attaches a sink for cross-instance fan-out. Call before
// serving traffic.
func (h *Hub) SetRemote(r RemoteSink) { h.remote = r }

// Join registers a new subscriber in the event's room.
func (h *Hub) Join(eventID uint64) *Subscriber {
	sub := &Subscriber{EventID: eventID, C: make(chan Frame, subscriberBuffer)}
	h.mu.Lock()
	room := h.rooms[eventID]
	if room == nil {
		room = make(map[*Subscriber]struct{})
		h.rooms[eventID] = room
	}
	room[sub] = struct{}{}
	h.mu.Unlock()
	monitoring.PresenceConnections.Inc()
	return sub
}

// Leave removes a subscriber from its room and closes its channel.
func (h *Hub) Leave(sub *Subscriber) {
	h.mu.Lock()
	room := h.rooms[sub.EventID]
	if room != nil {
		if _, ok := room[sub]; ok {
			delete(room, sub)
			close(sub.C)
			if len(room) == 0 {
				delete(h.rooms, sub.EventID)
			}
			monitoring.PresenceConnections.Dec()
		}
	}
	h.mu.Unlock()
}

// broadcast delivers a frame to every subscriber of the room. Sends are
// non-blocking; a full subscriber buffer drops the frame for that
// subscriber only.
func (h *Hub) broadcast(eventID uint64, f Frame) {
	h.mu.RLock()
	for sub := range h.rooms[eventID] {
		select {
		case sub.C <- f:
		default:
		}
	}
	h.mu.RUnlock()
}

func (h *Hub) publish(eventID uint64, f Frame) {
	h.broadcast(eventID, f)
	if h.remote != nil {
		h.remote.PublishRemote(eventID, f)
	}
}

// PublishSelect announces an advisory selection of one seat.
func (h *Hub) PublishSelect(eventID, seatID, userID uint64) {
	h.publish(eventID, Frame{Type: FrameSeatUpdated, SeatID: seatID, Status: "selected", UserID: userID})
}

// PublishDeselect announces that an advisory selection was released.
func (h *Hub) PublishDeselect(eventID, seatID uint64) {
	h.publish(eventID, Frame{Type: FrameSeatUpdated, SeatID: seatID, Status: "available"})
}

// PublishBooked announces that a booking committed for the given seats.
// Booked supersedes any advisory state subscribers hold for these seats.
func (h *Hub) PublishBooked(eventID uint64, seatIDs []uint64) {
	h.publish(eventID, Frame{Type: FrameSeatsBooked, SeatIDs: seatIDs, Status: "booked"})
}

// PublishAvailable announces seats returning to the open pool after a
// cancellation or an implicit deselect on disconnect.
func (h *Hub) PublishAvailable(eventID uint64, seatIDs []uint64) {
	for _, id := range seatIDs {
		h.publish(eventID, Frame{Type: FrameSeatUpdated, SeatID: id, Status: "available"})
	}
}

// HandleRemote delivers a frame that originated on a peer instance to
// local subscribers only.
func (h *Hub) HandleRemote(eventID uint64, f Frame) {
	h.broadcast(eventID, f)
}

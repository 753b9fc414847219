package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(c chan Frame) []Frame {
	var out []Frame
	for {
		select {
		case f := <-c:
			out = append(out, f)
		default:
			return out
		}
	}
}

func TestHubFansOutToRoomMembers(t *testing.T) {
	hub := NewHub()
	a := hub.Join(1)
	b := hub.Join(1)
	other := hub.Join(2)

	hub.PublishSelect(1, 10, 7)

	for _, sub := range []*Subscriber{a, b} {
		frames := drain(sub.C)
		require.Len(t, frames, 1)
		assert.Equal(t, FrameSeatUpdated, frames[0].Type)
		assert.Equal(t, uint64(10), frames[0].SeatID)
		assert.Equal(t, "selected", frames[0].Status)
		assert.Equal(t, uint64(7), frames[0].UserID)
	}
	assert.Empty(t, drain(other.C))
}

func TestHubDropsFramesForSlowSubscriber(t *testing.T) {
	hub := NewHub()
	sub := hub.Join(1)

	// Never read: the buffer fills and later frames must be dropped
	// without blocking the publisher.
	for i := 0; i < subscriberBuffer*2; i++ {
		hub.PublishDeselect(1, uint64(i))
	}

	frames := drain(sub.C)
	assert.Len(t, frames, subscriberBuffer)
}

func TestHubLeaveClosesChannel(t *testing.T) {
	hub := NewHub()
	sub := hub.Join(1)
	hub.Leave(sub)

	_, open := <-sub.C
	assert.False(t, open)

	// Publishing after the last member left must not panic.
	hub.PublishBooked(1, []uint64{1, 2})

	// Double leave is a no-op.
	hub.Leave(sub)
}

func TestHubBookedFrameCarriesAllSeats(t *testing.T) {
	hub := NewHub()
	sub := hub.Join(5)

	hub.PublishBooked(5, []uint64{3, 4, 5})

	frames := drain(sub.C)
	require.Len(t, frames, 1)
	assert.Equal(t, FrameSeatsBooked, frames[0].Type)
	assert.Equal(t, "booked", frames[0].Status)
	assert.Equal(t, []uint64{3, 4, 5}, frames[0].SeatIDs)
}

func TestHubPublishAvailableEmitsPerSeat(t *testing.T) {
	hub := NewHub()
	sub := hub.Join(1)

	hub.PublishAvailable(1, []uint64{8, 9})

	frames := drain(sub.C)
	require.Len(t, frames, 2)
	for _, f := range frames {
		assert.Equal(t, FrameSeatUpdated, f.Type)
		assert.Equal(t, "available", f.Status)
	}
}

type recordingSink struct {
	frames []Frame
}

func (r *recordingSink) PublishRemote(_ uint64, f Frame) {
	r.frames = append(r.frames, f)
}

func TestHubForwardsLocalPublishesToRemote(t *testing.T) {
	hub := NewHub()
	sink := &recordingSink{}
	hub.SetRemote(sink)
	sub := hub.Join(1)

	hub.PublishSelect(1, 10, 7)

	assert.Len(t, drain(sub.C), 1)
	require.Len(t, sink.frames, 1)
	assert.Equal(t, FrameSeatUpdated, sink.frames[0].Type)
}

func TestHubHandleRemoteStaysLocal(t *testing.T) {
	hub := NewHub()
	sink := &recordingSink{}
	hub.SetRemote(sink)
	sub := hub.Join(1)

	hub.HandleRemote(1, Frame{Type: FrameSeatUpdated, SeatID: 3, Status: "selected"})

	// Delivered to local subscribers but never echoed back to the sink,
	// or two instances would ping-pong frames forever.
	assert.Len(t, drain(sub.C), 1)
	assert.Empty(t, sink.frames)
}

func TestSubscriberTrySendTargetsOneSubscriber(t *testing.T) {
	hub := NewHub()
	a := hub.Join(1)
	b := hub.Join(1)

	a.TrySend(Frame{Type: FrameSupportResponse, Message: "hello"})

	require.Len(t, drain(a.C), 1)
	assert.Empty(t, drain(b.C))
}

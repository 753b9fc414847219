package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelopeJSON(t *testing.T, instance string, f Frame) []byte {
	t.Helper()
	b, err := json.Marshal(envelope{Instance: instance, Frame: f})
	require.NoError(t, err)
	return b
}

func TestBridgeRelaysForeignFrames(t *testing.T) {
	hub := NewHub()
	bridge := &RedisBridge{hub: hub, instance: "self"}
	sub := hub.Join(7)

	frame := Frame{Type: FrameSeatUpdated, SeatID: 12, Status: "selected", UserID: 3}
	bridge.relay("presence:event:7", envelopeJSON(t, "peer", frame))

	frames := drain(sub.C)
	require.Len(t, frames, 1)
	assert.Equal(t, frame, frames[0])
}

func TestBridgeSkipsOwnFrames(t *testing.T) {
	hub := NewHub()
	bridge := &RedisBridge{hub: hub, instance: "self"}
	sub := hub.Join(7)

	bridge.relay("presence:event:7", envelopeJSON(t, "self", Frame{Type: FrameSeatUpdated, SeatID: 12}))

	assert.Empty(t, drain(sub.C))
}

func TestBridgeIgnoresMalformedInput(t *testing.T) {
	hub := NewHub()
	bridge := &RedisBridge{hub: hub, instance: "self"}
	sub := hub.Join(7)

	bridge.relay("presence:event:7", []byte("{not json"))
	bridge.relay("presence:event:not-a-number", envelopeJSON(t, "peer", Frame{Type: FrameSeatUpdated}))

	assert.Empty(t, drain(sub.C))
}

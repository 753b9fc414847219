package realtime

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "presence:event:"

// envelope wraps a frame on the wire with the publishing instance's ID so
// each instance can skip messages it published itself.
type envelope struct {
	Instance string `json:"instance"`
	Frame    Frame  `json:"frame"`
}

// RedisBridge relays live-channel frames between server instances over
// Redis pub/sub, one channel per event. Without a bridge the Hub serves a
// single process; with it, subscribers on any instance see the same
// stream.
type RedisBridge struct {
	client   *redis.Client
	hub      *Hub
	instance string
}

// NewRedisBridge creates a bridge and registers it as the hub's remote
// sink. Run must be started for inbound relay to work.
func NewRedisBridge(client *redis.Client, hub *Hub) *RedisBridge {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	b := &RedisBridge{client: client, hub: hub, instance: hex.EncodeToString(buf)}
	hub.SetRemote(b)
	return b
}

// PublishRemote forwards a locally published frame to peer instances.
// Errors are logged; local subscribers already received the frame.
func (b *RedisBridge) PublishRemote(eventID uint64, f Frame) {
	payload, err := json.Marshal(envelope{Instance: b.instance, Frame: f})
	if err != nil {
		return
	}
	channel := channelPrefix + strconv.FormatUint(eventID, 10)
	if err := b.client.Publish(context.Background(), channel, payload).Err(); err != nil {
		log.Printf("presence bridge: publish to %s failed: %v", channel, err)
	}
}

// Run subscribes to every event's presence channel and relays inbound
// frames to local subscribers until ctx is cancelled. Intended to run in
// its own goroutine.
func (b *RedisBridge) Run(ctx context.Context) {
	sub := b.client.PSubscribe(ctx, channelPrefix+"*")
	defer func() { _ = sub.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			b.relay(msg.Channel, []byte(msg.Payload))
		}
	}
}

func (b *RedisBridge) relay(channel string, payload []byte) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		log.Printf("presence bridge: bad payload on %s: %v", channel, err)
		return
	}
	if env.Instance == b.instance {
		return
	}
	eventID, err := strconv.ParseUint(strings.TrimPrefix(channel, channelPrefix), 10, 64)
	if err != nil {
		return
	}
	b.hub.HandleRemote(eventID, env.Frame)
}

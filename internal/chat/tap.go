package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Tap observes chat broadcasts. Implementations must not block the hub.
type Tap interface {
	Publish(room string, payload []byte)
}

// NopTap discards everything.
type NopTap struct{}

func (NopTap) Publish(string, []byte) {}

type tapEvent struct {
	channel string
	payload []byte
}

// RedisTap mirrors every chat envelope onto the Redis channel "<prefix>:<room>".
// It only publishes; nothing is read back into the relay.
type RedisTap struct {
	client  *redis.Client
	prefix  string
	log     *slog.Logger
	timeout time.Duration
	events  chan tapEvent
}

func NewRedisTap(client *redis.Client, prefix string, bufferSize int, log *slog.Logger) *RedisTap {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &RedisTap{
		client:  client,
		prefix:  prefix,
		log:     log,
		timeout: 2 * time.Second,
		events:  make(chan tapEvent, bufferSize),
	}
}

// Channel returns the Redis channel name used for room.
func (t *RedisTap) Channel(room string) string {
	return t.prefix + ":" + room
}

// Publish queues the payload; it is dropped when the queue is full.
func (t *RedisTap) Publish(room string, payload []byte) {
	select {
	case t.events <- tapEvent{channel: t.Channel(room), payload: payload}:
	default:
		t.log.Warn("Redis tap queue full, dropping event", "room", room)
	}
}

// Run drains the queue into Redis until ctx is cancelled.
func (t *RedisTap) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-t.events:
			pubCtx, cancel := context.WithTimeout(ctx, t.timeout)
			if err := t.client.Publish(pubCtx, evt.channel, evt.payload).Err(); err != nil {
				t.log.Warn("Redis publish failed", "channel", evt.channel, "error", err)
			}
			cancel()
		}
	}
}

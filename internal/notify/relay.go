package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRelay publishes notifications on a Redis channel and feeds every
// message received on it into the local hub, so sockets connected to any
// instance get the update.
type RedisRelay struct {
	rdb     *redis.Client
	channel string
	hub     *Hub
}

func NewRedisRelay(rdb *redis.Client, channel string, hub *Hub) *RedisRelay {
	return &RedisRelay{
		rdb:     rdb,
		channel: channel,
		hub:     hub,
	}
}

func (r *RedisRelay) Notify(ctx context.Context, room, event string, data any) error {
	payload, err := json.Marshal(Message{Event: event, Room: room, Data: data})
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	if err = r.rdb.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("r.rdb.Publish -> %w", err)
	}

	return nil
}

// Run blocks until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer func() {
		_ = sub.Close()
	}()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var m Message
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				zap.L().Warn("dropping malformed relay message", zap.Error(err))
				continue
			}
			r.hub.Broadcast(m.Room, []byte(msg.Payload))
		}
	}
}

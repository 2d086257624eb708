package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"eventweave.app/planner/internal/model"
)

// RedisMirror publishes every broadcast message to a Redis pub/sub
// channel for external dashboards. It is never on the critical path:
// the core bus works identically with mirror == nil, and every publish
// error here is swallowed by the caller (Bus.dispatchOne/Broadcast).
// Grounded on the teacher's internal/queue producer, repurposed from a
// Streams transport into a fire-and-forget mirror since the spec
// requires an in-process bus with no distributed deployment.
type RedisMirror struct {
	client  *redis.Client
	channel string
}

func NewRedisMirror(addr, channel string) *RedisMirror {
	return &RedisMirror{
		client:  redis.NewClient(&redis.Options{Addr: addr}),
		channel: channel,
	}
}

func (m *RedisMirror) Publish(ctx context.Context, msg model.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("redis mirror: marshal message: %w", err)
	}
	if err := m.client.Publish(ctx, m.channel, data).Err(); err != nil {
		return fmt.Errorf("redis mirror: publish: %w", err)
	}
	return nil
}

func (m *RedisMirror) Close() error {
	return m.client.Close()
}

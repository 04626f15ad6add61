// Package events publishes domain events to Redis pub/sub channels, where the
// gateway picks them up for SSE and notification fan-out.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher sends JSON payloads on named channels.
type Publisher struct {
	rdb    *redis.Client
	prefix string
}

// NewPublisher returns a Publisher. A non-empty prefix is prepended to every
// channel name, e.g. "hiretop:".
func NewPublisher(rdb *redis.Client, prefix string) *Publisher {
	return &Publisher{rdb: rdb, prefix: prefix}
}

// Publish marshals payload and publishes it on channel.
func (p *Publisher) Publish(ctx context.Context, channel string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", channel, err)
	}
	if err := p.rdb.Publish(ctx, p.prefix+channel, body).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/predarb/internal/domain"
)

// OpportunityBus implements domain.OpportunityBus using Redis Pub/Sub.
// Channel names are namespaced with the client's key prefix.
type OpportunityBus struct {
	c *Client
}

// NewOpportunityBus creates an OpportunityBus backed by the given Client.
func NewOpportunityBus(c *Client) *OpportunityBus {
	return &OpportunityBus{c: c}
}

// Publish sends a raw byte payload to a Redis Pub/Sub channel.
func (b *OpportunityBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.c.rdb.Publish(ctx, b.c.Key(channel), payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe creates a Redis Pub/Sub subscription and returns a read-only
// channel that emits raw byte payloads. The subscription is automatically
// closed when the context is cancelled; the returned channel is closed at
// that point as well.
func (b *OpportunityBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	name := b.c.Key(channel)
	var pubsub *redis.PubSub
	if hasPattern(channel) {
		pubsub = b.c.rdb.PSubscribe(ctx, name)
	} else {
		pubsub = b.c.rdb.Subscribe(ctx, name)
	}

	// Verify the subscription is established by receiving the confirmation.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// hasPattern returns true when the Redis channel includes glob-style
// wildcards, in which case PSubscribe must be used instead of Subscribe.
func hasPattern(channel string) bool {
	return strings.ContainsAny(channel, "*?[")
}

var _ domain.OpportunityBus = (*OpportunityBus)(nil)

package domain

import (
	"context"
	"time"
)

// DedupStore records when an opportunity key was last reported. Entries older
// than their ttl are treated as absent.
type DedupStore interface {
	LastReported(ctx context.Context, key string) (time.Time, bool, error)
	MarkReported(ctx context.Context, key string, at time.Time, ttl time.Duration) error
}

// OpportunityBus publishes opportunities to subscribers.
type OpportunityBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

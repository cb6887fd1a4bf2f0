package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alanyoungcy/predarb/internal/domain"
)

// BusSender publishes opportunities as JSON on an OpportunityBus channel
// (Redis pub/sub in production). Plain text notifications are not forwarded.
type BusSender struct {
	bus     domain.OpportunityBus
	channel string
}

// NewBusSender creates a BusSender publishing to channel.
func NewBusSender(bus domain.OpportunityBus, channel string) *BusSender {
	return &BusSender{bus: bus, channel: channel}
}

// Send is a no-op: subscribers consume structured opportunities only.
func (b *BusSender) Send(context.Context, string, string) error { return nil }

// SendOpportunity publishes opp.
func (b *BusSender) SendOpportunity(ctx context.Context, opp domain.ArbitrageOpportunity) error {
	payload, err := json.Marshal(opp)
	if err != nil {
		return fmt.Errorf("bus: marshal opportunity: %w", err)
	}
	if err := b.bus.Publish(ctx, b.channel, payload); err != nil {
		return fmt.Errorf("bus: publish %s: %w", b.channel, err)
	}
	return nil
}

// Name returns the sender identifier.
func (b *BusSender) Name() string {
	return "bus:" + b.channel
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"auction-engine/internal/domain"

	"github.com/go-redis/redis/v8"
)

const eventsChannel = "auction_events"

// EventPublisher broadcasts engine events on a redis pub/sub channel for
// external consumers (the notifier service, analytics, etc.).
type EventPublisher struct {
	client *redis.Client
}

func NewEventPublisher(client *redis.Client) *EventPublisher {
	return &EventPublisher{client: client}
}

func (p *EventPublisher) PublishAuctionEvent(ctx context.Context, event *domain.AuctionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal auction event: %w", err)
	}
	return p.client.Publish(ctx, eventsChannel, payload).Err()
}

package redis

import (
	"context"
	"encoding/json"

	"auction-engine/internal/domain"
	"auction-engine/pkg/logger"

	"github.com/go-redis/redis/v8"
)

type EventSubscriber struct {
	client *redis.Client
	log    logger.Logger
}

func NewEventSubscriber(client *redis.Client, log logger.Logger) *EventSubscriber {
	return &EventSubscriber{
		client: client,
		log:    log,
	}
}

// SubscribeToAuctionEvents blocks, invoking handler for every event until the
// context is cancelled. Malformed payloads and handler errors are logged and
// skipped; the subscription stays up.
func (s *EventSubscriber) SubscribeToAuctionEvents(ctx context.Context, handler domain.EventHandler) error {
	pubsub := s.client.Subscribe(ctx, eventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	s.log.Info("Subscribed to auction events", "channel", eventsChannel)

	for {
		select {
		case msg := <-ch:
			var event domain.AuctionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.log.Error("Failed to decode auction event", "payload", msg.Payload, "error", err)
				continue
			}

			if err := handler(&event); err != nil {
				s.log.Error("Failed to handle auction event", "type", event.Type,
					"auction_id", event.AuctionID, "error", err)
			}

		case <-ctx.Done():
			s.log.Info("Event subscriber stopped")
			return ctx.Err()
		}
	}
}

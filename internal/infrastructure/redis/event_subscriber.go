package redis

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"

	"github.com/sanjayvanan/IntelliBid/internal/domain"
	"github.com/sanjayvanan/IntelliBid/pkg/logger"
)

type RedisEventSubscriber struct {
	client *redis.Client
	log    logger.Logger
}

func NewEventSubscriber(client *redis.Client, log logger.Logger) *RedisEventSubscriber {
	return &RedisEventSubscriber{
		client: client,
		log:    log,
	}
}

// SubscribeToPriceEvents blocks, feeding every broadcast price change to
// handler until ctx is cancelled. Handler errors are logged and skipped:
// live updates carry no delivery guarantee.
func (r *RedisEventSubscriber) SubscribeToPriceEvents(ctx context.Context, handler domain.EventHandler) error {
	pubsub := r.client.Subscribe(ctx, priceChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	r.log.Info("subscribed to price events", "channel", priceChannel)

	for {
		select {
		case msg := <-ch:
			var event domain.PriceEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.log.Error("failed to decode price event", "payload", msg.Payload, "error", err)
				continue
			}

			if err := handler(&event); err != nil {
				r.log.Error("failed to handle price event", "item_id", event.ItemID, "error", err)
			}

		case <-ctx.Done():
			r.log.Info("price event subscriber stopped")
			return ctx.Err()
		}
	}
}

package services

import (
	"context"

	"github.com/sanjayvanan/IntelliBid/internal/domain"
	"github.com/sanjayvanan/IntelliBid/internal/infrastructure/websocket"
	"github.com/sanjayvanan/IntelliBid/pkg/logger"
)

// EventListener bridges the redis price channel to local websocket
// viewers. Every engine instance broadcasts to its own connections, so
// a viewer sees updates no matter which instance accepted the bid.
type EventListener struct {
	connManager *websocket.ConnectionManager
	log         logger.Logger
}

func NewEventListener(connManager *websocket.ConnectionManager, log logger.Logger) *EventListener {
	return &EventListener{
		connManager: connManager,
		log:         log,
	}
}

func (el *EventListener) Start(ctx context.Context, subscriber domain.EventSubscriber) error {
	el.log.Info("starting price event listener")
	return subscriber.SubscribeToPriceEvents(ctx, el.handlePriceEvent)
}

func (el *EventListener) handlePriceEvent(event *domain.PriceEvent) error {
	return el.connManager.BroadcastToItem(event.ItemID, map[string]interface{}{
		"type":      "price_changed",
		"item_id":   event.ItemID,
		"new_price": event.NewPrice,
		"leader_id": event.LeaderID,
		"timestamp": event.Timestamp,
	})
}

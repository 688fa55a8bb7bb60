package services

import (
	"context"
	"time"

	"github.com/sanjayvanan/IntelliBid/internal/domain"
	"github.com/sanjayvanan/IntelliBid/pkg/logger"
)

// BidService applies resolver decisions to storage atomically. One call,
// one transaction: either every bid row and the item update commit
// together, or the item is left exactly as it was.
type BidService struct {
	store    domain.AuctionStore
	resolver *BidResolver
	events   domain.EventPublisher
	log      logger.Logger
	now      func() time.Time
}

func NewBidService(store domain.AuctionStore, resolver *BidResolver,
	events domain.EventPublisher, log logger.Logger) *BidService {
	return &BidService{
		store:    store,
		resolver: resolver,
		events:   events,
		log:      log,
		now:      time.Now,
	}
}

// PlaceBid places a proxy bid on an item. The read-modify-write of the
// item row is serialized per item by the store, so concurrent challengers
// never compute against the same stale price.
func (s *BidService) PlaceBid(ctx context.Context, itemID int64, bidderID string, userMaxBid float64) (*domain.Item, string, error) {
	if bidderID == "" || userMaxBid <= 0 {
		return nil, "", domain.ErrInvalidAmount
	}

	var decision *domain.BidDecision
	priceBefore := 0.0

	item, err := s.store.ApplyBid(ctx, itemID, func(it *domain.Item) (*domain.BidDecision, error) {
		if it.Status != domain.ItemActive {
			return nil, domain.ErrAuctionClosed
		}
		if s.now().Before(it.StartTime) {
			return nil, domain.ErrAuctionNotStarted
		}
		if bidderID == it.SellerID {
			return nil, domain.ErrSellerBid
		}

		priceBefore = it.CurrentPrice
		d, err := s.resolver.Resolve(it, bidderID, userMaxBid)
		if err != nil {
			return nil, err
		}
		decision = d
		return d, nil
	})
	if err != nil {
		return nil, "", err
	}

	s.log.Info("bid accepted",
		"item_id", itemID,
		"bidder_id", bidderID,
		"new_price", item.CurrentPrice,
		"leader_id", item.ProxyBidderID)

	// Fire-and-forget: a failed broadcast never rolls back a committed bid.
	if item.CurrentPrice != priceBefore {
		go s.publishPriceChange(item)
	}

	return item, decision.Message, nil
}

// BidHistory returns the item's recorded bids, oldest first. Proxy
// counter-raises appear as ordinary rows under the defending bidder.
func (s *BidService) BidHistory(ctx context.Context, itemID int64) ([]*domain.Bid, error) {
	if _, err := s.store.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.store.BidHistory(ctx, itemID)
}

func (s *BidService) publishPriceChange(item *domain.Item) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := &domain.PriceEvent{
		ItemID:    item.ID,
		NewPrice:  item.CurrentPrice,
		LeaderID:  item.ProxyBidderID,
		Timestamp: s.now(),
	}
	if err := s.events.PublishPriceEvent(ctx, event); err != nil {
		s.log.Error("failed to publish price event", "item_id", item.ID, "error", err)
	}
}

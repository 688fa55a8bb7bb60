package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sanjayvanan/IntelliBid/internal/domain"
	"github.com/sanjayvanan/IntelliBid/pkg/logger"
)

const listPageSize = 100

// ItemService owns item creation and reads, plus payment confirmation.
// Creating an item also schedules its close-auction job; losing that job
// to a crash is recovered by the startup reconciler.
type ItemService struct {
	items     domain.ItemRepository
	scheduler domain.JobScheduler
	log       logger.Logger
}

func NewItemService(items domain.ItemRepository, scheduler domain.JobScheduler, log logger.Logger) *ItemService {
	return &ItemService{
		items:     items,
		scheduler: scheduler,
		log:       log,
	}
}

func (s *ItemService) CreateItem(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	if item.StartTime.IsZero() {
		item.StartTime = time.Now()
	}

	id, err := s.items.CreateItem(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	err = s.scheduler.Enqueue(ctx, domain.JobCloseAuction, id, item.EndTime,
		domain.DedupKey(domain.JobCloseAuction, id))
	if err != nil {
		return nil, fmt.Errorf("scheduling close for item %d: %w", id, err)
	}

	s.log.Info("item created", "item_id", id, "end_time", item.EndTime)
	return s.items.GetItem(ctx, id)
}

func (s *ItemService) GetItem(ctx context.Context, itemID int64) (*domain.Item, error) {
	return s.items.GetItem(ctx, itemID)
}

func (s *ItemService) ListActiveItems(ctx context.Context) ([]*domain.Item, error) {
	return s.items.ListActiveItems(ctx, 0, listPageSize)
}

func (s *ItemService) ListWonItems(ctx context.Context, bidderID string) ([]*domain.Item, error) {
	return s.items.ListWonItems(ctx, bidderID)
}

// ConfirmPayment records that the winner paid. Gateway verification is
// the payment layer's problem; only the resulting transition lives here.
func (s *ItemService) ConfirmPayment(ctx context.Context, itemID int64) error {
	rows, err := s.items.MarkPaid(ctx, itemID)
	if err != nil {
		return fmt.Errorf("marking item %d paid: %w", itemID, err)
	}
	if rows == 0 {
		return domain.ErrNoPendingPayment
	}

	s.log.Info("payment confirmed", "item_id", itemID)
	return nil
}

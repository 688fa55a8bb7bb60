package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sanjayvanan/IntelliBid/internal/domain"
	"github.com/sanjayvanan/IntelliBid/pkg/logger"
)

// Reconciler re-derives missing jobs from item rows on process start, so
// correctness does not depend on the job table surviving a restart. The
// scheduler's dedup key makes every enqueue a no-op for items that still
// have their job.
type Reconciler struct {
	items      domain.ItemRepository
	scheduler  domain.JobScheduler
	grace      time.Duration
	batchSize  int
	batchPause time.Duration
	log        logger.Logger
	now        func() time.Time
}

func NewReconciler(items domain.ItemRepository, scheduler domain.JobScheduler,
	grace time.Duration, batchSize int, batchPause time.Duration, log logger.Logger) *Reconciler {
	return &Reconciler{
		items:      items,
		scheduler:  scheduler,
		grace:      grace,
		batchSize:  batchSize,
		batchPause: batchPause,
		log:        log,
		now:        time.Now,
	}
}

// SyncActiveAuctions scans active items in ascending-id batches and
// re-schedules their close-auction jobs, then does the same for ended
// items still awaiting payment. It runs concurrently with request traffic
// and yields between batches.
func (r *Reconciler) SyncActiveAuctions(ctx context.Context) error {
	r.log.Info("starting auction sync")

	total, err := r.scanBatches(ctx, r.items.ListActiveItems, func(ctx context.Context, item *domain.Item) error {
		return r.scheduler.Enqueue(ctx, domain.JobCloseAuction, item.ID, item.EndTime,
			domain.DedupKey(domain.JobCloseAuction, item.ID))
	})
	if err != nil {
		return fmt.Errorf("syncing active items: %w", err)
	}

	// Ended items stuck in pending-payment lose their check-payment job
	// the same way. The persisted deadline keeps the original grace period
	// intact; items without a recorded deadline restart it from now.
	fallback := r.now().Add(r.grace)
	pending, err := r.scanBatches(ctx, r.items.ListPendingPaymentItems, func(ctx context.Context, item *domain.Item) error {
		fireAt := item.PaymentDueAt
		if fireAt.IsZero() {
			fireAt = fallback
		}
		return r.scheduler.Enqueue(ctx, domain.JobCheckPayment, item.ID, fireAt,
			domain.DedupKey(domain.JobCheckPayment, item.ID))
	})
	if err != nil {
		return fmt.Errorf("syncing pending-payment items: %w", err)
	}

	r.log.Info("auction sync complete", "active_synced", total, "pending_payment_synced", pending)
	return nil
}

type listFunc func(ctx context.Context, afterID int64, limit int) ([]*domain.Item, error)

func (r *Reconciler) scanBatches(ctx context.Context, list listFunc,
	enqueue func(ctx context.Context, item *domain.Item) error) (int, error) {
	var lastID int64
	total := 0

	for {
		items, err := list(ctx, lastID, r.batchSize)
		if err != nil {
			return total, err
		}
		if len(items) == 0 {
			return total, nil
		}

		for _, item := range items {
			if err := enqueue(ctx, item); err != nil {
				return total, err
			}
		}

		lastID = items[len(items)-1].ID
		total += len(items)

		// Breathing room so reconciliation never starves request handling.
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case <-time.After(r.batchPause):
		}
	}
}

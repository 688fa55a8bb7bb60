package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sanjayvanan/IntelliBid/internal/domain"
	"github.com/sanjayvanan/IntelliBid/pkg/logger"
)

// LifecycleWorker drives items through close -> pending-payment ->
// paid / deadbeat-recovery -> (relist | second-chance). Handlers are
// consumed through the scheduler and must stay idempotent under
// redelivery: a job is never acknowledged until every mutation committed.
type LifecycleWorker struct {
	store     domain.AuctionStore
	scheduler domain.JobScheduler
	notifier  domain.NotificationSender
	grace     time.Duration
	relist    time.Duration
	log       logger.Logger
	now       func() time.Time
}

func NewLifecycleWorker(store domain.AuctionStore, scheduler domain.JobScheduler,
	notifier domain.NotificationSender, grace, relist time.Duration, log logger.Logger) *LifecycleWorker {
	return &LifecycleWorker{
		store:     store,
		scheduler: scheduler,
		notifier:  notifier,
		grace:     grace,
		relist:    relist,
		log:       log,
		now:       time.Now,
	}
}

// RegisterHandlers subscribes the worker to the scheduler's job types.
func (w *LifecycleWorker) RegisterHandlers() {
	w.scheduler.Register(domain.JobCloseAuction, w.HandleCloseAuction)
	w.scheduler.Register(domain.JobCheckPayment, w.HandleCheckPayment)
}

// HandleCloseAuction fires at end_time. The conditional update acts as a
// compare-and-swap, so at most one invocation transitions the item even
// when the job is redelivered.
func (w *LifecycleWorker) HandleCloseAuction(ctx context.Context, itemID int64) error {
	now := w.now()

	rows, err := w.store.MarkEnded(ctx, itemID, now)
	if err != nil {
		return domain.Retryable(fmt.Errorf("ending item %d: %w", itemID, err))
	}

	item, err := w.store.GetItem(ctx, itemID)
	if err != nil {
		return domain.Retryable(fmt.Errorf("reading item %d: %w", itemID, err))
	}

	if rows == 0 {
		if item.Status == domain.ItemActive {
			if now.Before(item.EndTime) {
				// End time moved (relist raced the job); the fresh
				// close-auction job owns this item now.
				w.log.Info("close job obsolete, end time in the future",
					"item_id", itemID, "end_time", item.EndTime)
				return nil
			}
			// Still active with end_time in the past: the store clock
			// disagrees with ours. Retry rather than silently drop.
			return domain.Retryable(fmt.Errorf("item %d: %w", itemID, domain.ErrClockSkew))
		}
		// Already ended: redelivery of a previously-interrupted run.
		// Fall through and finish the remaining steps.
		w.log.Info("close job redelivered for ended item", "item_id", itemID)
	}

	dueAt := item.PaymentDueAt
	if item.WinnerID == "" {
		top, err := w.store.HighestBid(ctx, itemID)
		if err != nil {
			return domain.Retryable(fmt.Errorf("finding highest bid for item %d: %w", itemID, err))
		}
		if top == nil {
			w.log.Info("auction closed with no bids", "item_id", itemID)
			return nil
		}

		dueAt = now.Add(w.grace)
		if err := w.store.AssignWinner(ctx, itemID, top.BidderID, dueAt); err != nil {
			return domain.Retryable(fmt.Errorf("assigning winner for item %d: %w", itemID, err))
		}

		w.log.Info("auction closed with winner",
			"item_id", itemID, "winner_id", top.BidderID, "amount", top.Amount)

		// The transition above is committed: a notification failure from
		// here retries the job, which will no-op the close and the winner
		// assignment and only re-attempt the send.
		if err := w.notifier.NotifyWinner(ctx, top.BidderID, item.Name, top.Amount); err != nil {
			return domain.Retryable(fmt.Errorf("notifying winner of item %d: %w", itemID, err))
		}
	}

	// Redelivery reuses the persisted deadline, so a retried close never
	// extends an already-running grace period.
	if dueAt.IsZero() {
		dueAt = now.Add(w.grace)
	}
	err = w.scheduler.Enqueue(ctx, domain.JobCheckPayment, itemID, dueAt,
		domain.DedupKey(domain.JobCheckPayment, itemID))
	if err != nil {
		return domain.Retryable(fmt.Errorf("scheduling payment check for item %d: %w", itemID, err))
	}

	return nil
}

// HandleCheckPayment fires after the payment grace period. A winner still
// pending at that point is a deadbeat: their entire bid history on the
// item is voided, then the next-highest bidder gets a second chance or
// the item is relisted.
func (w *LifecycleWorker) HandleCheckPayment(ctx context.Context, itemID int64) error {
	item, err := w.store.GetItem(ctx, itemID)
	if err != nil {
		return domain.Retryable(fmt.Errorf("reading item %d: %w", itemID, err))
	}

	if item.PaymentStatus == domain.PaymentPaid {
		w.log.Info("payment received", "item_id", itemID, "winner_id", item.WinnerID)
		return nil
	}
	if item.WinnerID == "" || item.Status != domain.ItemEnded {
		// Redelivery after a completed relist. Nothing left to recover.
		return nil
	}

	now := w.now()
	if !item.PaymentDueAt.IsZero() && now.Before(item.PaymentDueAt) {
		// The deadline moved since this firing was scheduled (a second
		// chance restarted the grace period). Push the job out to match.
		err = w.scheduler.Enqueue(ctx, domain.JobCheckPayment, itemID, item.PaymentDueAt,
			domain.DedupKey(domain.JobCheckPayment, itemID))
		if err != nil {
			return domain.Retryable(fmt.Errorf("deferring payment check for item %d: %w", itemID, err))
		}
		return nil
	}

	deadbeat := item.WinnerID
	deleted, err := w.store.DeleteBidsByBidder(ctx, itemID, deadbeat)
	if err != nil {
		return domain.Retryable(fmt.Errorf("removing deadbeat bids for item %d: %w", itemID, err))
	}
	w.log.Warn("deadbeat winner removed",
		"item_id", itemID, "bidder_id", deadbeat, "bids_deleted", deleted)

	top, err := w.store.HighestBid(ctx, itemID)
	if err != nil {
		return domain.Retryable(fmt.Errorf("finding highest remaining bid for item %d: %w", itemID, err))
	}

	if top != nil {
		// Second chance: the grace period restarts for the new winner.
		dueAt := now.Add(w.grace)
		if err := w.store.SetSecondChanceWinner(ctx, itemID, top.BidderID, top.Amount, dueAt); err != nil {
			return domain.Retryable(fmt.Errorf("promoting second-chance winner for item %d: %w", itemID, err))
		}
		w.log.Info("second-chance winner assigned",
			"item_id", itemID, "winner_id", top.BidderID, "amount", top.Amount)

		if err := w.notifier.NotifySecondChance(ctx, top.BidderID, item.Name, top.Amount); err != nil {
			return domain.Retryable(fmt.Errorf("notifying second-chance winner of item %d: %w", itemID, err))
		}

		err = w.scheduler.Enqueue(ctx, domain.JobCheckPayment, itemID, dueAt,
			domain.DedupKey(domain.JobCheckPayment, itemID))
		if err != nil {
			return domain.Retryable(fmt.Errorf("rescheduling payment check for item %d: %w", itemID, err))
		}
		return nil
	}

	// No bidders remain: relist as a fresh auction.
	newEnd := now.Add(w.relist)
	if err := w.store.ResetForRelist(ctx, itemID, newEnd); err != nil {
		return domain.Retryable(fmt.Errorf("relisting item %d: %w", itemID, err))
	}
	w.log.Info("item relisted", "item_id", itemID, "new_end_time", newEnd)

	// A crash before this enqueue is recovered by the startup reconciler,
	// which re-derives close jobs from active item rows.
	err = w.scheduler.Enqueue(ctx, domain.JobCloseAuction, itemID, newEnd,
		domain.DedupKey(domain.JobCloseAuction, itemID))
	if err != nil {
		return domain.Retryable(fmt.Errorf("scheduling close for relisted item %d: %w", itemID, err))
	}

	return nil
}

package domain

import (
	"context"
	"time"
)

// AuctionStore is the durable storage consumed by the bidding and
// lifecycle paths. Implementations must provide atomic conditional
// updates and per-item serialization for ApplyBid.
type AuctionStore interface {
	ItemRepository
	BidRepository

	// ApplyBid runs apply against the item row under a per-item lock,
	// inside one transaction: the decision's bid rows are inserted and the
	// item's price/leader/ceiling updated, or nothing is written at all.
	// Returns the committed item re-read inside the same transaction.
	ApplyBid(ctx context.Context, itemID int64, apply func(item *Item) (*BidDecision, error)) (*Item, error)
}

type ItemRepository interface {
	CreateItem(ctx context.Context, item *Item) (int64, error)
	GetItem(ctx context.Context, itemID int64) (*Item, error)
	ListActiveItems(ctx context.Context, afterID int64, limit int) ([]*Item, error)
	ListPendingPaymentItems(ctx context.Context, afterID int64, limit int) ([]*Item, error)
	ListWonItems(ctx context.Context, bidderID string) ([]*Item, error)

	// MarkEnded is the close-auction compare-and-swap: status becomes
	// ended only where status = active and end_time <= now. Returns the
	// number of rows affected.
	MarkEnded(ctx context.Context, itemID int64, now time.Time) (int64, error)

	// AssignWinner sets winner_id, payment_status = pending and the
	// payment deadline. The deadline is what distinguishes "grace period
	// expired" from "grace period just restarted" on redelivered jobs.
	AssignWinner(ctx context.Context, itemID int64, winnerID string, dueAt time.Time) error

	// SetSecondChanceWinner promotes the next bidder after deadbeat
	// removal: winner_id, current_price and a fresh payment deadline.
	SetSecondChanceWinner(ctx context.Context, itemID int64, winnerID string, amount float64, dueAt time.Time) error

	// MarkPaid records payment for the item's winner. Returns rows
	// affected so callers can tell a no-op from a real transition.
	MarkPaid(ctx context.Context, itemID int64) (int64, error)

	// ResetForRelist returns the item to a fresh active auction: no
	// winner, no payment, current_price back to start_price, new end time.
	ResetForRelist(ctx context.Context, itemID int64, endTime time.Time) error
}

type BidRepository interface {
	// HighestBid returns nil when the item has no bids.
	HighestBid(ctx context.Context, itemID int64) (*Bid, error)
	BidHistory(ctx context.Context, itemID int64) ([]*Bid, error)

	// DeleteBidsByBidder voids a bidder's entire participation on the
	// item, not just their top bid.
	DeleteBidsByBidder(ctx context.Context, itemID int64, bidderID string) (int64, error)
}

// JobHandler processes one fired job. Returning a *RetryableError leaves
// the job pending for redelivery; any other error is terminal.
type JobHandler func(ctx context.Context, itemID int64) error

// JobScheduler is the durable delayed-job facility. Delivery is
// at-least-once; the dedup key bounds pending jobs to one per type+item.
type JobScheduler interface {
	Enqueue(ctx context.Context, jobType JobType, itemID int64, fireAt time.Time, dedupKey string) error
	Register(jobType JobType, handler JobHandler)
	Start(ctx context.Context) error
	Stop() error
}

// JobRepository backs the scheduler with durable job rows.
type JobRepository interface {
	UpsertPendingJob(ctx context.Context, job *ScheduledJob) error
	DueJobs(ctx context.Context, before time.Time, limit int) ([]*ScheduledJob, error)

	// MarkExecuted acknowledges the firing identified by (jobID, firedAt).
	// A handler that re-enqueued the same dedup key moved run_at forward,
	// and the acknowledgement must then leave the row pending.
	MarkExecuted(ctx context.Context, jobID string, firedAt time.Time) error
	MarkFailed(ctx context.Context, jobID string) error
	RecordAttempt(ctx context.Context, jobID string) error
}

// NotificationSender delivers win notifications. Best-effort: failures are
// retried by re-running the enclosing job, never by rolling back state.
type NotificationSender interface {
	NotifyWinner(ctx context.Context, userID, itemName string, amount float64) error
	NotifySecondChance(ctx context.Context, userID, itemName string, amount float64) error
}

// UserDirectory resolves a bidder's contact address. User accounts
// themselves are owned by the excluded auth layer.
type UserDirectory interface {
	GetEmail(ctx context.Context, userID string) (string, error)
}

// EventPublisher broadcasts price changes to live subscribers.
// Fire-and-forget, no delivery guarantee.
type EventPublisher interface {
	PublishPriceEvent(ctx context.Context, event *PriceEvent) error
}

type EventHandler func(event *PriceEvent) error

type EventSubscriber interface {
	SubscribeToPriceEvents(ctx context.Context, handler EventHandler) error
}

// LeaderElection gates job processing so a single instance drains the
// due-job table at a time.
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

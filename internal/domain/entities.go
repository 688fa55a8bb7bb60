package domain

import (
	"fmt"
	"time"
)

type ItemStatus string

const (
	ItemActive ItemStatus = "active"
	ItemEnded  ItemStatus = "ended"
)

type PaymentStatus string

const (
	PaymentNone    PaymentStatus = ""
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// Item is the auction aggregate. The items row is the single source of
// truth for auction state; bids are derived history.
type Item struct {
	ID            int64
	Name          string
	Description   string
	StartPrice    float64
	CurrentPrice  float64
	StartTime     time.Time
	EndTime       time.Time
	Status        ItemStatus
	ProxyBidderID string  // empty when no leader
	ProxyMaxBid   float64 // meaningful only when ProxyBidderID is set
	WinnerID      string
	PaymentStatus PaymentStatus
	PaymentDueAt  time.Time // zero unless payment is pending
	SellerID      string
	CategoryID    int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasLeader reports whether a proxy bidder currently holds the item.
func (i *Item) HasLeader() bool {
	return i.ProxyBidderID != ""
}

type Bid struct {
	ID        int64
	ItemID    int64
	BidderID  string
	Amount    float64
	CreatedAt time.Time
}

// BidRow is a bid the resolver decided to record. A single accepted bid
// can produce two rows when the incumbent proxy auto-defends.
type BidRow struct {
	BidderID string
	Amount   float64
}

// BidDecision is the resolver's output: the next item state plus the bid
// rows to append. It carries no side effects of its own.
type BidDecision struct {
	NewPrice    float64
	NewLeaderID string
	NewProxyMax float64
	Rows        []BidRow
	Message     string
}

// PriceEvent is broadcast to live subscribers after an accepted bid.
type PriceEvent struct {
	ItemID    int64     `json:"item_id"`
	NewPrice  float64   `json:"new_price"`
	LeaderID  string    `json:"leader_id"`
	Timestamp time.Time `json:"timestamp"`
}

type JobType string

const (
	JobCloseAuction JobType = "close-auction"
	JobCheckPayment JobType = "check-payment"
)

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobExecuted JobStatus = "executed"
	JobFailed   JobStatus = "failed"
)

// ScheduledJob is an ephemeral control signal. It carries no independent
// truth: on loss it is reconstructable from item rows at startup.
type ScheduledJob struct {
	ID        string
	ItemID    int64
	JobType   JobType
	RunAt     time.Time
	Status    JobStatus
	DedupKey  string
	Attempts  int
	CreatedAt time.Time
}

// DedupKey guarantees at most one pending job of a given type per item.
func DedupKey(jobType JobType, itemID int64) string {
	return fmt.Sprintf("%s:%d", jobType, itemID)
}

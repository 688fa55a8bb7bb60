package services

import (
	"math"

	"github.com/sanjayvanan/IntelliBid/internal/domain"
	"github.com/sanjayvanan/IntelliBid/pkg/utils"
)

// BidResolver decides the next auction state for an incoming proxy bid.
// It is a pure decision function: no storage, no clock, no side effects.
// Preconditions (item active, started, bidder is not the seller, positive
// amount) are validated by the caller before it is invoked.
type BidResolver struct {
	increment float64
}

// NewBidResolver creates a resolver with the minimum outbid step, the
// smallest meaningful amount by which a challenger must beat the price.
func NewBidResolver(increment float64) *BidResolver {
	return &BidResolver{increment: increment}
}

// Resolve evaluates a bid of userMaxBid (the bidder's private ceiling)
// against the item's current price, leader and leader ceiling.
//
// Four cases, in order: first bid on a leaderless item; the leader raising
// their own ceiling; a challenger the incumbent proxy defends against; a
// challenger taking the lead. A challenger must clear current price plus
// the increment before any case is evaluated.
func (r *BidResolver) Resolve(item *domain.Item, bidderID string, userMaxBid float64) (*domain.BidDecision, error) {
	userMax := utils.Round2(userMaxBid)

	// Minimum-bid guard. Does not apply to the leader raising their own
	// ceiling, which is handled purely against their previous max.
	if bidderID != item.ProxyBidderID {
		if userMax < utils.Round2(item.CurrentPrice+r.increment) {
			return nil, domain.ErrBidTooLow
		}
	}

	switch {
	case !item.HasLeader():
		// First bid: the price stays at the floor, the ceiling is private.
		price := utils.Round2(math.Max(item.StartPrice, item.CurrentPrice))
		return &domain.BidDecision{
			NewPrice:    price,
			NewLeaderID: bidderID,
			NewProxyMax: userMax,
			Rows:        []domain.BidRow{{BidderID: bidderID, Amount: price}},
			Message:     "you are the highest bidder",
		}, nil

	case bidderID == item.ProxyBidderID:
		// The leader may only raise their own ceiling. No price change,
		// no bid rows.
		if userMax <= item.ProxyMaxBid {
			return nil, domain.ErrMaxNotRaised
		}
		return &domain.BidDecision{
			NewPrice:    item.CurrentPrice,
			NewLeaderID: bidderID,
			NewProxyMax: userMax,
			Message:     "maximum bid raised",
		}, nil

	case userMax <= item.ProxyMaxBid:
		// The incumbent proxy auto-defends. Two rows: the challenger's
		// real attempt and the system-driven counter-raise.
		price := utils.Round2(math.Min(userMax+r.increment, item.ProxyMaxBid))
		rows := []domain.BidRow{
			{BidderID: bidderID, Amount: userMax},
			{BidderID: item.ProxyBidderID, Amount: price},
		}
		if price == userMax {
			// Ceiling tie: the defense lands on the same amount as the
			// challenge. Record the incumbent first so the winner pick,
			// which prefers the earliest row at an amount, crowns the
			// bidder who actually holds the lead.
			rows[0], rows[1] = rows[1], rows[0]
		}
		return &domain.BidDecision{
			NewPrice:    price,
			NewLeaderID: item.ProxyBidderID,
			NewProxyMax: item.ProxyMaxBid,
			Rows:        rows,
			Message:     "outbid by the current leader's proxy",
		}, nil

	default:
		// The challenger's ceiling beats the leader's: leadership changes.
		price := utils.Round2(math.Min(item.ProxyMaxBid+r.increment, userMax))
		var rows []domain.BidRow
		if item.ProxyMaxBid > item.CurrentPrice {
			// The old leader's proxy reached its ceiling on the way out.
			rows = append(rows, domain.BidRow{BidderID: item.ProxyBidderID, Amount: utils.Round2(item.ProxyMaxBid)})
		}
		rows = append(rows, domain.BidRow{BidderID: bidderID, Amount: price})
		return &domain.BidDecision{
			NewPrice:    price,
			NewLeaderID: bidderID,
			NewProxyMax: userMax,
			Rows:        rows,
			Message:     "you are the highest bidder",
		}, nil
	}
}

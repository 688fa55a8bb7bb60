package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sanjayvanan/IntelliBid/internal/domain"
)

// HighestBid returns the top bid for an item, or nil when it has none.
// Equal amounts tie-break on insertion order: first recorded wins.
func (s *Store) HighestBid(ctx context.Context, itemID int64) (*domain.Bid, error) {
	var bid domain.Bid
	err := s.db.QueryRowContext(ctx, `
        SELECT id, item_id, bidder_id, amount, created_at
        FROM bids WHERE item_id = ?
        ORDER BY amount DESC, id ASC LIMIT 1`, itemID).Scan(
		&bid.ID, &bid.ItemID, &bid.BidderID, &bid.Amount, &bid.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func (s *Store) BidHistory(ctx context.Context, itemID int64) ([]*domain.Bid, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, item_id, bidder_id, amount, created_at
        FROM bids WHERE item_id = ?
        ORDER BY id ASC`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		var bid domain.Bid
		err := rows.Scan(&bid.ID, &bid.ItemID, &bid.BidderID, &bid.Amount, &bid.CreatedAt)
		if err != nil {
			return nil, err
		}
		bids = append(bids, &bid)
	}
	return bids, rows.Err()
}

// DeleteBidsByBidder removes every bid row the bidder placed on the item.
func (s *Store) DeleteBidsByBidder(ctx context.Context, itemID int64, bidderID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bids WHERE item_id = ? AND bidder_id = ?`, itemID, bidderID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

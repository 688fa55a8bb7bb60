package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/sanjayvanan/IntelliBid/internal/domain"
)

// Store implements domain.AuctionStore over MySQL. Per-item serialization
// for bid application comes from the row lock taken by SELECT ... FOR
// UPDATE; bids on different items proceed independently.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const itemColumns = `id, name, description, start_price, current_price, start_time, end_time,
        status, proxy_bidder_id, proxy_max_bid, winner_id, payment_status, payment_due_at,
        seller_id, category_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var item domain.Item
	var proxyBidder, winner, payment sql.NullString
	var proxyMax sql.NullFloat64
	var paymentDue sql.NullTime

	err := row.Scan(
		&item.ID, &item.Name, &item.Description, &item.StartPrice, &item.CurrentPrice,
		&item.StartTime, &item.EndTime, &item.Status, &proxyBidder, &proxyMax,
		&winner, &payment, &paymentDue, &item.SellerID, &item.CategoryID,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	item.ProxyBidderID = proxyBidder.String
	item.ProxyMaxBid = proxyMax.Float64
	item.WinnerID = winner.String
	item.PaymentStatus = domain.PaymentStatus(payment.String)
	item.PaymentDueAt = paymentDue.Time
	return &item, nil
}

// ApplyBid runs apply against the locked item row and commits the
// decision atomically: bid rows, then the item update, then a re-read.
// Any failure rolls back every write.
func (s *Store) ApplyBid(ctx context.Context, itemID int64,
	apply func(item *domain.Item) (*domain.BidDecision, error)) (*domain.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	item, err := scanItem(tx.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ? FOR UPDATE`, itemID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}

	decision, err := apply(item)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for _, row := range decision.Rows {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO bids (item_id, bidder_id, amount, created_at) VALUES (?, ?, ?, ?)`,
			itemID, row.BidderID, row.Amount, now)
		if err != nil {
			return nil, err
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET current_price = ?, proxy_bidder_id = ?, proxy_max_bid = ?, updated_at = ?
         WHERE id = ?`,
		decision.NewPrice, decision.NewLeaderID, decision.NewProxyMax, now, itemID)
	if err != nil {
		return nil, err
	}

	updated, err := scanItem(tx.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, itemID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}

package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sanjayvanan/IntelliBid/internal/domain"
)

func (s *Store) CreateItem(ctx context.Context, item *domain.Item) (int64, error) {
	now := time.Now()
	currentPrice := item.CurrentPrice
	if currentPrice == 0 {
		currentPrice = item.StartPrice
	}

	res, err := s.db.ExecContext(ctx, `
        INSERT INTO items (name, description, start_price, current_price, start_time, end_time,
                           status, seller_id, category_id, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, 'active', ?, ?, ?, ?)`,
		item.Name, item.Description, item.StartPrice, currentPrice,
		item.StartTime, item.EndTime, item.SellerID, item.CategoryID, now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) GetItem(ctx context.Context, itemID int64) (*domain.Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, itemID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	return item, err
}

func (s *Store) ListActiveItems(ctx context.Context, afterID int64, limit int) ([]*domain.Item, error) {
	// Keyset pagination: cheap to resume, no OFFSET scans.
	return s.listItems(ctx, `
        SELECT `+itemColumns+` FROM items
        WHERE status = 'active' AND id > ?
        ORDER BY id ASC LIMIT ?`, afterID, limit)
}

func (s *Store) ListPendingPaymentItems(ctx context.Context, afterID int64, limit int) ([]*domain.Item, error) {
	return s.listItems(ctx, `
        SELECT `+itemColumns+` FROM items
        WHERE status = 'ended' AND payment_status = 'pending' AND id > ?
        ORDER BY id ASC LIMIT ?`, afterID, limit)
}

func (s *Store) ListWonItems(ctx context.Context, bidderID string) ([]*domain.Item, error) {
	return s.listItems(ctx, `
        SELECT `+itemColumns+` FROM items
        WHERE status = 'ended' AND winner_id = ?
        ORDER BY end_time DESC`, bidderID)
}

func (s *Store) listItems(ctx context.Context, query string, args ...interface{}) ([]*domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) MarkEnded(ctx context.Context, itemID int64, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
        UPDATE items SET status = 'ended', updated_at = ?
        WHERE id = ? AND status = 'active' AND end_time <= ?`,
		now, itemID, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) AssignWinner(ctx context.Context, itemID int64, winnerID string, dueAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE items SET winner_id = ?, payment_status = 'pending', payment_due_at = ?, updated_at = ?
        WHERE id = ?`,
		winnerID, dueAt, time.Now(), itemID)
	return err
}

func (s *Store) SetSecondChanceWinner(ctx context.Context, itemID int64, winnerID string, amount float64, dueAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE items SET winner_id = ?, current_price = ?, payment_status = 'pending',
            payment_due_at = ?, updated_at = ?
        WHERE id = ?`,
		winnerID, amount, dueAt, time.Now(), itemID)
	return err
}

func (s *Store) MarkPaid(ctx context.Context, itemID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
        UPDATE items SET payment_status = 'paid', updated_at = ?
        WHERE id = ? AND payment_status = 'pending'`,
		time.Now(), itemID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) ResetForRelist(ctx context.Context, itemID int64, endTime time.Time) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE items
        SET status = 'active', winner_id = NULL, payment_status = NULL, payment_due_at = NULL,
            proxy_bidder_id = NULL, proxy_max_bid = NULL,
            current_price = start_price, end_time = ?, updated_at = ?
        WHERE id = ?`,
		endTime, time.Now(), itemID)
	return err
}

package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// MySQLUserDirectory resolves bidder contact addresses from the users
// table. Account management itself belongs to the auth layer.
type MySQLUserDirectory struct {
	db *sql.DB
}

func NewMySQLUserDirectory(db *sql.DB) *MySQLUserDirectory {
	return &MySQLUserDirectory{db: db}
}

func (d *MySQLUserDirectory) GetEmail(ctx context.Context, userID string) (string, error) {
	var email string
	err := d.db.QueryRowContext(ctx,
		`SELECT email FROM users WHERE id = ?`, userID).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("no user with id %s", userID)
	}
	return email, err
}

package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"auction-engine/internal/domain"
)

// UserDirectory resolves user identities from the marketplace users table.
// Read-only: the engine only needs display names for denormalized fields.
type UserDirectory struct {
	db *sql.DB
}

func NewUserDirectory(db *sql.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (d *UserDirectory) ResolveUser(ctx context.Context, userID string) (*domain.UserInfo, error) {
	query := `SELECT id, name, email FROM users WHERE id = ?`

	var user domain.UserInfo
	err := d.db.QueryRowContext(ctx, query, userID).Scan(&user.ID, &user.Name, &user.Contact)
	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &user, nil
}

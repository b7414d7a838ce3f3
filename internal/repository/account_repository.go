package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/atayl16/siege-clan-tracker/internal/models"
)

// AccountRepository persists portal accounts.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository constructs the repository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// FindByID fetches an account.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := r.db.GetContext(ctx, &account, `SELECT id, username, is_admin, created_at FROM accounts WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &account, nil
}

// SetAdmin grants or revokes the admin flag.
func (r *AccountRepository) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE accounts SET is_admin = $1 WHERE id = $2`, isAdmin, id)
	if err != nil {
		return fmt.Errorf("set account admin: %w", err)
	}
	return expectRows(result, "set account admin")
}

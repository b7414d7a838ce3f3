package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/atayl16/siege-clan-tracker/internal/models"
	appErrors "github.com/atayl16/siege-clan-tracker/pkg/errors"
)

type accountStore interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
	SetAdmin(ctx context.Context, id string, isAdmin bool) error
}

// AccountService manages account flags.
type AccountService struct {
	accounts accountStore
	logger   *zap.Logger
}

// NewAccountService constructs the service.
func NewAccountService(accounts accountStore, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{accounts: accounts, logger: logger}
}

// Get loads an account.
func (s *AccountService) Get(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	return account, nil
}

// SetAdmin grants or revokes admin rights. Admins cannot revoke their own.
func (s *AccountService) SetAdmin(ctx context.Context, actor models.Actor, accountID string, isAdmin bool) (*models.Account, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if accountID == actor.AccountID && !isAdmin {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot revoke your own admin rights")
	}
	account, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.SetAdmin(ctx, accountID, isAdmin); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update account")
	}
	account.IsAdmin = isAdmin
	s.logger.Info("account admin flag changed",
		zap.String("account_id", accountID),
		zap.Bool("is_admin", isAdmin),
		zap.String("by", actor.AccountID))
	return account, nil
}

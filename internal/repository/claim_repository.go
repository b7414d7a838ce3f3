package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/atayl16/siege-clan-tracker/internal/models"
	"github.com/atayl16/siege-clan-tracker/pkg/database"
)

// ClaimsWomIDConstraint is the unique constraint guaranteeing one claim per character.
const ClaimsWomIDConstraint = "claims_wom_id_key"

// ErrClaimExists is returned when a claim for the character already exists.
var ErrClaimExists = errors.New("character already claimed")

// ClaimRepository reads account/character claims.
type ClaimRepository struct {
	db *sqlx.DB
}

// NewClaimRepository constructs the repository.
func NewClaimRepository(db *sqlx.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// FindByWomID returns the claim on a character, if any.
func (r *ClaimRepository) FindByWomID(ctx context.Context, womID int64) (*models.Claim, error) {
	var claim models.Claim
	if err := r.db.GetContext(ctx, &claim,
		`SELECT id, account_id, wom_id, source, created_at FROM claims WHERE wom_id = $1`, womID); err != nil {
		return nil, err
	}
	return &claim, nil
}

// ExistsByWomID reports whether the character is claimed.
func (r *ClaimRepository) ExistsByWomID(ctx context.Context, womID int64) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM claims WHERE wom_id = $1)`, womID); err != nil {
		return false, fmt.Errorf("check claim exists: %w", err)
	}
	return exists, nil
}

// HeldBy reports whether accountID holds the claim on the character.
func (r *ClaimRepository) HeldBy(ctx context.Context, accountID string, womID int64) (bool, error) {
	var held bool
	if err := r.db.GetContext(ctx, &held,
		`SELECT EXISTS(SELECT 1 FROM claims WHERE account_id = $1 AND wom_id = $2)`, accountID, womID); err != nil {
		return false, fmt.Errorf("check claim holder: %w", err)
	}
	return held, nil
}

// insertClaim writes a claim inside tx, translating the one-claim-per-character
// constraint into ErrClaimExists.
func insertClaim(ctx context.Context, tx *sqlx.Tx, claim *models.Claim) error {
	if claim.ID == "" {
		claim.ID = uuid.NewString()
	}
	if claim.CreatedAt.IsZero() {
		claim.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO claims (id, account_id, wom_id, source, created_at)
	VALUES (:id, :account_id, :wom_id, :source, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, claim); err != nil {
		if database.IsUniqueViolation(err, ClaimsWomIDConstraint) {
			return ErrClaimExists
		}
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

func rollback(tx *sqlx.Tx, err *error) {
	if *err != nil {
		_ = tx.Rollback()
	}
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

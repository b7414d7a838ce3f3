package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/atayl16/siege-clan-tracker/internal/models"
	"github.com/atayl16/siege-clan-tracker/pkg/database"
)

// ClaimCodesPkey is the primary key constraint on claim codes.
const ClaimCodesPkey = "claim_codes_pkey"

var (
	// ErrCodeCollision is returned by Create when the generated code is already taken.
	ErrCodeCollision = errors.New("claim code collision")
	// ErrCodeUnavailable is returned by Redeem when the code is unknown or consumed.
	ErrCodeUnavailable = errors.New("claim code unavailable")
)

const claimCodeColumns = `code, wom_id, issued_by, issued_at, expires_at, consumed, consumed_by, consumed_at`

// ClaimCodeRepository persists single-use claim codes.
type ClaimCodeRepository struct {
	db *sqlx.DB
}

// NewClaimCodeRepository constructs the repository.
func NewClaimCodeRepository(db *sqlx.DB) *ClaimCodeRepository {
	return &ClaimCodeRepository{db: db}
}

// Create inserts a freshly issued code.
func (r *ClaimCodeRepository) Create(ctx context.Context, code *models.ClaimCode) error {
	if code.IssuedAt.IsZero() {
		code.IssuedAt = time.Now().UTC()
	}
	const query = `INSERT INTO claim_codes (code, wom_id, issued_by, issued_at, expires_at, consumed)
	VALUES (:code, :wom_id, :issued_by, :issued_at, :expires_at, FALSE)`
	if _, err := r.db.NamedExecContext(ctx, query, code); err != nil {
		if database.IsUniqueViolation(err, ClaimCodesPkey) {
			return ErrCodeCollision
		}
		return fmt.Errorf("create claim code: %w", err)
	}
	return nil
}

// ListByWomID returns codes issued for a character, newest first.
func (r *ClaimCodeRepository) ListByWomID(ctx context.Context, womID int64) ([]models.ClaimCode, error) {
	query := `SELECT ` + claimCodeColumns + ` FROM claim_codes WHERE wom_id = $1 ORDER BY issued_at DESC`
	var codes []models.ClaimCode
	if err := r.db.SelectContext(ctx, &codes, query, womID); err != nil {
		return nil, fmt.Errorf("list claim codes: %w", err)
	}
	return codes, nil
}

// RedeemParams describes a redemption attempt.
type RedeemParams struct {
	Code      string
	AccountID string
	At        time.Time
	// Validate inspects the locked code before anything is written; a non-nil
	// error aborts the redemption and is returned unchanged.
	Validate func(*models.ClaimCode) error
}

// Redeem consumes a code and creates the matching claim in one transaction.
// Either both the claim and the consumption are committed or neither is.
func (r *ClaimCodeRepository) Redeem(ctx context.Context, params RedeemParams) (claim *models.Claim, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin redeem claim code: %w", err)
	}
	defer rollback(tx, &err)

	var code models.ClaimCode
	query := `SELECT ` + claimCodeColumns + ` FROM claim_codes WHERE code = $1 AND consumed = FALSE FOR UPDATE`
	if err = tx.GetContext(ctx, &code, query, params.Code); err != nil {
		if isNoRows(err) {
			err = ErrCodeUnavailable
			return nil, err
		}
		err = fmt.Errorf("lock claim code: %w", err)
		return nil, err
	}

	if params.Validate != nil {
		if err = params.Validate(&code); err != nil {
			return nil, err
		}
	}

	claim = &models.Claim{
		AccountID: params.AccountID,
		WomID:     code.WomID,
		Source:    models.ClaimSourceCode,
		CreatedAt: params.At,
	}
	if err = insertClaim(ctx, tx, claim); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE claim_codes SET consumed = TRUE, consumed_by = $1, consumed_at = $2 WHERE code = $3 AND consumed = FALSE`,
		params.AccountID, params.At, params.Code)
	if err != nil {
		err = fmt.Errorf("consume claim code: %w", err)
		return nil, err
	}
	if err = expectRows(result, "consume claim code"); err != nil {
		if isNoRows(err) {
			err = ErrCodeUnavailable
		}
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("commit redeem claim code: %w", err)
		return nil, err
	}
	return claim, nil
}

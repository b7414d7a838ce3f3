package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/atayl16/siege-clan-tracker/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var claimCodeCols = []string{"code", "wom_id", "issued_by", "issued_at", "expires_at", "consumed", "consumed_by", "consumed_at"}

func TestClaimCodeRepositoryCreateCollision(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClaimCodeRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO claim_codes")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: ClaimCodesPkey})

	err := repo.Create(context.Background(), &models.ClaimCode{Code: "ABCD2345", WomID: 42, IssuedBy: "admin-1"})
	require.ErrorIs(t, err, ErrCodeCollision)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimCodeRepositoryRedeemCommits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClaimCodeRepository(db)
	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT code, wom_id")).
		WithArgs("ABCD2345").
		WillReturnRows(sqlmock.NewRows(claimCodeCols).AddRow("ABCD2345", int64(42), "admin-1", now, nil, false, nil, nil))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO claims")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE claim_codes SET consumed = TRUE")).
		WithArgs("account-1", now, "ABCD2345").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	claim, err := repo.Redeem(context.Background(), RedeemParams{Code: "ABCD2345", AccountID: "account-1", At: now})
	require.NoError(t, err)
	require.Equal(t, int64(42), claim.WomID)
	require.Equal(t, "account-1", claim.AccountID)
	require.Equal(t, models.ClaimSourceCode, claim.Source)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimCodeRepositoryRedeemUnknownCode(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClaimCodeRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT code, wom_id")).
		WithArgs("USEDCODE").
		WillReturnRows(sqlmock.NewRows(claimCodeCols))
	mock.ExpectRollback()

	_, err := repo.Redeem(context.Background(), RedeemParams{Code: "USEDCODE", AccountID: "account-1", At: time.Now()})
	require.ErrorIs(t, err, ErrCodeUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimCodeRepositoryRedeemValidationRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClaimCodeRepository(db)
	now := time.Now().UTC()
	expired := now.Add(-time.Hour)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT code, wom_id")).
		WillReturnRows(sqlmock.NewRows(claimCodeCols).AddRow("ABCD2345", int64(42), "admin-1", now, expired, false, nil, nil))
	mock.ExpectRollback()

	errExpired := errors.New("expired")
	_, err := repo.Redeem(context.Background(), RedeemParams{
		Code:      "ABCD2345",
		AccountID: "account-1",
		At:        now,
		Validate: func(code *models.ClaimCode) error {
			if code.ExpiredAt(now) {
				return errExpired
			}
			return nil
		},
	})
	require.ErrorIs(t, err, errExpired)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimCodeRepositoryRedeemAlreadyClaimedRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClaimCodeRepository(db)
	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT code, wom_id")).
		WillReturnRows(sqlmock.NewRows(claimCodeCols).AddRow("ABCD2345", int64(42), "admin-1", now, nil, false, nil, nil))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO claims")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: ClaimsWomIDConstraint})
	mock.ExpectRollback()

	_, err := repo.Redeem(context.Background(), RedeemParams{Code: "ABCD2345", AccountID: "account-2", At: now})
	require.ErrorIs(t, err, ErrClaimExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

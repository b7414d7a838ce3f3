package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/atayl16/siege-clan-tracker/internal/models"
	"github.com/atayl16/siege-clan-tracker/pkg/database"
)

// ClaimRequestsPendingConstraint allows one pending request per character.
const ClaimRequestsPendingConstraint = "claim_requests_pending_wom_id_key"

var (
	// ErrPendingExists is returned by Create when the character already has a pending request.
	ErrPendingExists = errors.New("pending claim request exists")
	// ErrRequestNotPending is returned when a transition targets a processed request.
	ErrRequestNotPending = errors.New("claim request not pending")
)

const claimRequestColumns = `id, account_id, wom_id, character_name, message, status, admin_notes,
       processed_by, created_at, processed_at`

// ClaimRequestRepository persists the claim request workflow.
type ClaimRequestRepository struct {
	db *sqlx.DB
}

// NewClaimRequestRepository constructs the repository.
func NewClaimRequestRepository(db *sqlx.DB) *ClaimRequestRepository {
	return &ClaimRequestRepository{db: db}
}

// Create inserts a new pending request.
func (r *ClaimRequestRepository) Create(ctx context.Context, request *models.ClaimRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	request.Status = models.ClaimRequestPending
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO claim_requests (id, account_id, wom_id, character_name, message, status, created_at)
	VALUES (:id, :account_id, :wom_id, :character_name, :message, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		if database.IsUniqueViolation(err, ClaimRequestsPendingConstraint) {
			return ErrPendingExists
		}
		return fmt.Errorf("create claim request: %w", err)
	}
	return nil
}

// GetByID fetches a request by identifier.
func (r *ClaimRequestRepository) GetByID(ctx context.Context, id string) (*models.ClaimRequest, error) {
	query := `SELECT ` + claimRequestColumns + ` FROM claim_requests WHERE id = $1`
	var request models.ClaimRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// HasPending reports whether the character has an outstanding request.
func (r *ClaimRequestRepository) HasPending(ctx context.Context, womID int64) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM claim_requests WHERE wom_id = $1 AND status = 'pending')`, womID); err != nil {
		return false, fmt.Errorf("check pending claim request: %w", err)
	}
	return exists, nil
}

// List returns requests matching the filter, latest first.
func (r *ClaimRequestRepository) List(ctx context.Context, filter models.ClaimRequestFilter) ([]models.ClaimRequest, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(`SELECT ` + claimRequestColumns + ` FROM claim_requests`)

	conditions := make([]string, 0, 3)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		conditions = append(conditions, fmt.Sprintf("account_id = $%d", len(args)))
	}
	if filter.WomID != 0 {
		args = append(args, filter.WomID)
		conditions = append(conditions, fmt.Sprintf("wom_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	fmt.Fprintf(&builder, " LIMIT %d OFFSET %d", limit, offset)

	var requests []models.ClaimRequest
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list claim requests: %w", err)
	}
	return requests, nil
}

// ProcessParams records the reviewing admin and outcome.
type ProcessParams struct {
	ID          string
	ProcessedBy string
	AdminNotes  *string
	At          time.Time
}

// Approve locks the request, creates the claim for its requester and marks the
// request approved in one transaction. A claim that already exists leaves the
// request pending and returns ErrClaimExists.
func (r *ClaimRequestRepository) Approve(ctx context.Context, params ProcessParams) (request *models.ClaimRequest, claim *models.Claim, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin approve claim request: %w", err)
	}
	defer rollback(tx, &err)

	request = &models.ClaimRequest{}
	query := `SELECT ` + claimRequestColumns + ` FROM claim_requests WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, request, query, params.ID); err != nil {
		return nil, nil, err
	}
	if request.Status != models.ClaimRequestPending {
		err = ErrRequestNotPending
		return nil, nil, err
	}

	claim = &models.Claim{
		AccountID: request.AccountID,
		WomID:     request.WomID,
		Source:    models.ClaimSourceRequest,
		CreatedAt: params.At,
	}
	if err = insertClaim(ctx, tx, claim); err != nil {
		return nil, nil, err
	}

	if err = transition(ctx, tx, params, models.ClaimRequestApproved); err != nil {
		return nil, nil, err
	}
	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("commit approve claim request: %w", err)
		return nil, nil, err
	}

	request.Status = models.ClaimRequestApproved
	request.ProcessedBy = &params.ProcessedBy
	request.AdminNotes = params.AdminNotes
	at := params.At
	request.ProcessedAt = &at
	return request, claim, nil
}

// Deny marks a pending request denied. It returns ErrRequestNotPending when
// the request was already processed.
func (r *ClaimRequestRepository) Deny(ctx context.Context, params ProcessParams) error {
	return transition(ctx, r.db, params, models.ClaimRequestDenied)
}

func transition(ctx context.Context, exec sqlx.ExtContext, params ProcessParams, status models.ClaimRequestStatus) error {
	query := fmt.Sprintf(`UPDATE claim_requests SET status = :status, processed_by = :processed_by,
	processed_at = :processed_at, admin_notes = :admin_notes WHERE id = :id AND status = '%s'`,
		models.ClaimRequestPending)
	result, err := sqlx.NamedExecContext(ctx, exec, query, map[string]interface{}{
		"id":           params.ID,
		"status":       status,
		"processed_by": params.ProcessedBy,
		"processed_at": params.At,
		"admin_notes":  params.AdminNotes,
	})
	if err != nil {
		return fmt.Errorf("update claim request status: %w", err)
	}
	if err := expectRows(result, "update claim request status"); err != nil {
		if isNoRows(err) {
			return ErrRequestNotPending
		}
		return err
	}
	return nil
}

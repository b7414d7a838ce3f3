package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/atayl16/siege-clan-tracker/internal/models"
)

const goalColumns = `id, account_id, wom_id, goal_type, metric, start_value, current_value, target_value,
       target_date, completed, completed_at, is_public, created_at, updated_at`

// GoalRepository persists user goals.
type GoalRepository struct {
	db *sqlx.DB
}

// NewGoalRepository constructs the repository.
func NewGoalRepository(db *sqlx.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// Create inserts a goal.
func (r *GoalRepository) Create(ctx context.Context, goal *models.Goal) error {
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = now
	}
	goal.UpdatedAt = goal.CreatedAt
	const query = `INSERT INTO goals
	(id, account_id, wom_id, goal_type, metric, start_value, current_value, target_value, target_date,
	 completed, completed_at, is_public, created_at, updated_at)
	VALUES (:id, :account_id, :wom_id, :goal_type, :metric, :start_value, :current_value, :target_value, :target_date,
	 :completed, :completed_at, :is_public, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, goal); err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

// GetByID fetches a goal.
func (r *GoalRepository) GetByID(ctx context.Context, id string) (*models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = $1`
	var goal models.Goal
	if err := r.db.GetContext(ctx, &goal, query, id); err != nil {
		return nil, err
	}
	return &goal, nil
}

// List returns goals matching the filter, newest first.
func (r *GoalRepository) List(ctx context.Context, filter models.GoalFilter) ([]models.Goal, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + goalColumns + ` FROM goals WHERE 1=1`)
	args := make([]interface{}, 0, 2)
	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		fmt.Fprintf(&builder, " AND account_id = $%d", len(args))
	}
	if filter.WomID != 0 {
		args = append(args, filter.WomID)
		fmt.Fprintf(&builder, " AND wom_id = $%d", len(args))
	}
	if filter.OnlyOpen {
		builder.WriteString(" AND completed = FALSE")
	}
	if filter.OnlyPublic {
		builder.WriteString(" AND is_public = TRUE")
	}
	builder.WriteString(" ORDER BY created_at DESC")

	var goals []models.Goal
	if err := r.db.SelectContext(ctx, &goals, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// ListOpen returns the incomplete goals an account has on a character.
func (r *GoalRepository) ListOpen(ctx context.Context, accountID string, womID int64) ([]models.Goal, error) {
	return r.List(ctx, models.GoalFilter{AccountID: accountID, WomID: womID, OnlyOpen: true})
}

// ListSyncTargets returns every (account, character) pair with at least one open goal.
func (r *GoalRepository) ListSyncTargets(ctx context.Context) ([]models.SyncTarget, error) {
	var targets []models.SyncTarget
	if err := r.db.SelectContext(ctx, &targets,
		`SELECT DISTINCT account_id, wom_id FROM goals WHERE completed = FALSE ORDER BY account_id, wom_id`); err != nil {
		return nil, fmt.Errorf("list goal sync targets: %w", err)
	}
	return targets, nil
}

// UpdateProgress stores the latest value. When Complete is set the goal is
// completed only if it was not already; completed_at is never overwritten and
// a completed goal never reverts. It reports whether this call completed the goal.
func (r *GoalRepository) UpdateProgress(ctx context.Context, update models.GoalProgressUpdate) (bool, error) {
	const query = `UPDATE goals g SET
	current_value = $1,
	updated_at = $2,
	completed = g.completed OR $3,
	completed_at = CASE WHEN NOT g.completed AND $3 THEN $2 ELSE g.completed_at END
	FROM (SELECT id, completed AS was_completed FROM goals WHERE id = $4 FOR UPDATE) prev
	WHERE g.id = prev.id
	RETURNING (NOT prev.was_completed AND g.completed) AS newly_completed`
	var newlyCompleted bool
	if err := r.db.GetContext(ctx, &newlyCompleted, query,
		update.CurrentValue, update.At, update.Complete, update.ID); err != nil {
		if isNoRows(err) {
			return false, err
		}
		return false, fmt.Errorf("update goal progress: %w", err)
	}
	return newlyCompleted, nil
}

// Delete removes a goal.
func (r *GoalRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return expectRows(result, "delete goal")
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/atayl16/siege-clan-tracker/internal/models"
)

const characterColumns = `wom_id, name, display_name, current_role, ehb, current_experience, initial_experience,
       siege_score, join_date, hidden, not_found_upstream, updated_at`

// CharacterRepository reads and updates tracked characters.
type CharacterRepository struct {
	db *sqlx.DB
}

// NewCharacterRepository constructs the repository.
func NewCharacterRepository(db *sqlx.DB) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// FindByWomID fetches a character by its upstream id.
func (r *CharacterRepository) FindByWomID(ctx context.Context, womID int64) (*models.Character, error) {
	query := `SELECT ` + characterColumns + ` FROM characters WHERE wom_id = $1`
	var character models.Character
	if err := r.db.GetContext(ctx, &character, query, womID); err != nil {
		return nil, err
	}
	return &character, nil
}

// ListVisible returns every character not hidden from the roster, ordered by name.
func (r *CharacterRepository) ListVisible(ctx context.Context) ([]models.Character, error) {
	query := `SELECT ` + characterColumns + ` FROM characters WHERE hidden = FALSE ORDER BY name ASC`
	var characters []models.Character
	if err := r.db.SelectContext(ctx, &characters, query); err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	return characters, nil
}

// UpdateRole overwrites the stored role label.
func (r *CharacterRepository) UpdateRole(ctx context.Context, womID int64, role string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE characters SET current_role = $1, updated_at = $2 WHERE wom_id = $3`,
		role, time.Now().UTC(), womID)
	if err != nil {
		return fmt.Errorf("update character role: %w", err)
	}
	return expectRows(result, "update character role")
}

// UpdateStats stores freshly fetched upstream totals. The upstream display name
// lands in display_name; an empty one keeps the stored value.
func (r *CharacterRepository) UpdateStats(ctx context.Context, update models.CharacterStatsUpdate) error {
	if update.UpdatedAt.IsZero() {
		update.UpdatedAt = time.Now().UTC()
	}
	const query = `UPDATE characters SET
	display_name = COALESCE(NULLIF(:display_name, ''), display_name),
	current_experience = :current_experience,
	ehb = :ehb,
	not_found_upstream = :not_found_upstream,
	updated_at = :updated_at
	WHERE wom_id = :wom_id`
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"wom_id":             update.WomID,
		"display_name":       update.DisplayName,
		"current_experience": update.CurrentExperience,
		"ehb":                update.EHB,
		"not_found_upstream": update.NotFoundUpstream,
		"updated_at":         update.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("update character stats: %w", err)
	}
	return expectRows(result, "update character stats")
}

// MarkNotFound flags a character the statistics service no longer knows about.
func (r *CharacterRepository) MarkNotFound(ctx context.Context, womID int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE characters SET not_found_upstream = TRUE, updated_at = $1 WHERE wom_id = $2`,
		time.Now().UTC(), womID)
	if err != nil {
		return fmt.Errorf("mark character not found: %w", err)
	}
	return expectRows(result, "mark character not found")
}

func expectRows(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s rows: %w", op, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

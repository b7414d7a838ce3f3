package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/atayl16/siege-clan-tracker/internal/dto"
	"github.com/atayl16/siege-clan-tracker/internal/models"
	"github.com/atayl16/siege-clan-tracker/internal/rank"
	appErrors "github.com/atayl16/siege-clan-tracker/pkg/errors"
)

type characterRoleStore interface {
	FindByWomID(ctx context.Context, womID int64) (*models.Character, error)
	ListVisible(ctx context.Context) ([]models.Character, error)
	UpdateRole(ctx context.Context, womID int64, role string) error
}

// RankService exposes rank evaluation and the admin role fixes built on it.
type RankService struct {
	characters characterRoleStore
	logger     *zap.Logger
}

// NewRankService constructs the service.
func NewRankService(characters characterRoleStore, logger *zap.Logger) *RankService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RankService{characters: characters, logger: logger}
}

// ClassifyCharacter evaluates one character's role against its stats.
func (s *RankService) ClassifyCharacter(ctx context.Context, womID int64) (*dto.RankView, error) {
	character, err := loadCharacter(ctx, s.characters, womID)
	if err != nil {
		return nil, err
	}
	return &dto.RankView{WomID: character.WomID, Evaluation: rank.Evaluate(character.RankStats())}, nil
}

// ListMismatches returns every visible character whose role needs admin
// attention, most urgent first.
func (s *RankService) ListMismatches(ctx context.Context, actor models.Actor) ([]dto.RankView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	characters, err := s.characters.ListVisible(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list characters")
	}
	views := make([]dto.RankView, 0)
	for i := range characters {
		eval := rank.Evaluate(characters[i].RankStats())
		if eval.NeedsAttention() {
			views = append(views, dto.RankView{WomID: characters[i].WomID, Evaluation: eval})
		}
	}
	sort.SliceStable(views, func(i, j int) bool { return rank.Less(views[i].Evaluation, views[j].Evaluation) })
	return views, nil
}

// FixTier rewrites the role to the tier the character's stats earn on its
// current ladder.
func (s *RankService) FixTier(ctx context.Context, actor models.Actor, womID int64) (*dto.RankChange, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	character, err := loadCharacter(ctx, s.characters, womID)
	if err != nil {
		return nil, err
	}
	eval := rank.Evaluate(character.RankStats())
	if eval.Category == rank.CategoryUnknown {
		return nil, appErrors.Clone(appErrors.ErrValidation, "character role has no recognised tier")
	}
	return s.setRole(ctx, character, eval.ExpectedTier.Label())
}

// ToggleCategory moves the character to the other ladder at the tier its
// stats earn there.
func (s *RankService) ToggleCategory(ctx context.Context, actor models.Actor, womID int64) (*dto.RankChange, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	character, err := loadCharacter(ctx, s.characters, womID)
	if err != nil {
		return nil, err
	}
	role := rank.Toggle(character.RankStats())
	if role.Category == rank.CategoryUnknown {
		return nil, appErrors.Clone(appErrors.ErrValidation, "character role has no recognised tier")
	}
	return s.setRole(ctx, character, role.Tier.Label())
}

func (s *RankService) setRole(ctx context.Context, character *models.Character, role string) (*dto.RankChange, error) {
	change := &dto.RankChange{WomID: character.WomID, PreviousRole: character.CurrentRole, CurrentRole: role}
	if character.CurrentRole == role {
		return change, nil
	}
	if err := s.characters.UpdateRole(ctx, character.WomID, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "character not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role")
	}
	s.logger.Info("character role updated",
		zap.Int64("wom_id", character.WomID),
		zap.String("from", change.PreviousRole),
		zap.String("to", role))
	return change, nil
}

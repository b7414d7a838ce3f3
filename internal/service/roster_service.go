package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atayl16/siege-clan-tracker/internal/models"
	"github.com/atayl16/siege-clan-tracker/internal/stats"
	"github.com/atayl16/siege-clan-tracker/pkg/wom"
)

type rosterStore interface {
	ListVisible(ctx context.Context) ([]models.Character, error)
	UpdateStats(ctx context.Context, update models.CharacterStatsUpdate) error
	MarkNotFound(ctx context.Context, womID int64) error
}

type playerSource interface {
	Fetch(ctx context.Context, womID int64) (stats.Payload, error)
}

// RosterSummary reports one refresh pass.
type RosterSummary struct {
	Refreshed int `json:"refreshed"`
	NotFound  int `json:"notFound"`
	Failed    int `json:"failed"`
}

// RosterService re-fetches character totals from the statistics service.
type RosterService struct {
	characters rosterStore
	source     playerSource
	logger     *zap.Logger
	now        func() time.Time
}

// NewRosterService constructs the service.
func NewRosterService(characters rosterStore, source playerSource, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{
		characters: characters,
		source:     source,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Refresh walks every visible character. Characters the statistics service
// no longer knows are flagged; other fetch failures are counted and skipped.
func (s *RosterService) Refresh(ctx context.Context) (RosterSummary, error) {
	var summary RosterSummary
	characters, err := s.characters.ListVisible(ctx)
	if err != nil {
		return summary, err
	}
	for _, character := range characters {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		payload, err := s.source.Fetch(ctx, character.WomID)
		if err != nil {
			if wom.IsNotFound(err) {
				summary.NotFound++
				if markErr := s.characters.MarkNotFound(ctx, character.WomID); markErr != nil {
					s.logger.Warn("failed to flag missing character", zap.Int64("wom_id", character.WomID), zap.Error(markErr))
				}
				continue
			}
			summary.Failed++
			s.logger.Warn("roster fetch failed", zap.Int64("wom_id", character.WomID), zap.Error(err))
			continue
		}
		totals, ok := stats.PlayerTotals(payload)
		if !ok {
			summary.Failed++
			continue
		}
		if err := s.characters.UpdateStats(ctx, models.CharacterStatsUpdate{
			WomID:             character.WomID,
			DisplayName:       totals.DisplayName,
			CurrentExperience: totals.Experience,
			EHB:               totals.EHB,
			UpdatedAt:         s.now(),
		}); err != nil {
			summary.Failed++
			s.logger.Warn("roster update failed", zap.Int64("wom_id", character.WomID), zap.Error(err))
			continue
		}
		summary.Refreshed++
	}
	s.logger.Info("roster refreshed",
		zap.Int("refreshed", summary.Refreshed),
		zap.Int("not_found", summary.NotFound),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

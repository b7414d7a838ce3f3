package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atayl16/siege-clan-tracker/internal/dto"
	"github.com/atayl16/siege-clan-tracker/internal/models"
	"github.com/atayl16/siege-clan-tracker/internal/stats"
	appErrors "github.com/atayl16/siege-clan-tracker/pkg/errors"
)

type goalStore interface {
	Create(ctx context.Context, goal *models.Goal) error
	GetByID(ctx context.Context, id string) (*models.Goal, error)
	List(ctx context.Context, filter models.GoalFilter) ([]models.Goal, error)
	ListOpen(ctx context.Context, accountID string, womID int64) ([]models.Goal, error)
	UpdateProgress(ctx context.Context, update models.GoalProgressUpdate) (bool, error)
	Delete(ctx context.Context, id string) error
}

type characterStatsWriter interface {
	UpdateStats(ctx context.Context, update models.CharacterStatsUpdate) error
}

type payloadSource interface {
	Fetch(ctx context.Context, womID int64) (stats.Payload, error)
	Get(ctx context.Context, womID int64) (stats.Payload, error)
}

// GoalService manages goals and keeps their progress in step with the
// statistics service.
type GoalService struct {
	goals      goalStore
	claims     claimReader
	characters characterStatsWriter
	stats      payloadSource
	validator  *validator.Validate
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
}

// GoalServiceOption configures the service.
type GoalServiceOption func(*GoalService)

// WithGoalClock overrides the clock used for progress timestamps.
func WithGoalClock(now func() time.Time) GoalServiceOption {
	return func(s *GoalService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithGoalMetrics attaches metrics.
func WithGoalMetrics(metrics *MetricsService) GoalServiceOption {
	return func(s *GoalService) {
		s.metrics = metrics
	}
}

// NewGoalService constructs the service. characters may be nil, in which case
// character totals are not refreshed during sync.
func NewGoalService(goals goalStore, claims claimReader, characters characterStatsWriter, source payloadSource, validate *validator.Validate, logger *zap.Logger, opts ...GoalServiceOption) *GoalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &GoalService{
		goals:      goals,
		claims:     claims,
		characters: characters,
		stats:      source,
		validator:  validate,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Sync refreshes every open goal the account has on the character from one
// fresh fetch. current_value is always rewritten, even when the metric is
// missing and the default record yields zero. A goal completes at most once
// and never reverts. If the fetch fails nothing is written and the result is
// zero alongside UpstreamUnavailable.
func (s *GoalService) Sync(ctx context.Context, actor models.Actor, req dto.SyncGoalsRequest) (dto.SyncGoalsResult, error) {
	var result dto.SyncGoalsResult
	if !actor.Authenticated() {
		return result, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return result, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sync payload")
	}
	if !actor.CanActFor(req.AccountID) {
		return result, appErrors.ErrForbidden
	}

	goals, err := s.goals.ListOpen(ctx, req.AccountID, req.WomID)
	if err != nil {
		return result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load goals")
	}
	if len(goals) == 0 {
		return result, nil
	}

	payload, err := s.stats.Fetch(ctx, req.WomID)
	if err != nil {
		s.metrics.RecordGoalSync("upstream_unavailable", 0)
		s.logger.Warn("goal sync aborted, statistics unavailable",
			zap.Int64("wom_id", req.WomID),
			zap.String("account_id", req.AccountID),
			zap.Error(err))
		if appErrors.Is(err, appErrors.ErrUpstreamUnavailable) {
			return dto.SyncGoalsResult{}, err
		}
		return dto.SyncGoalsResult{}, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code,
			appErrors.ErrUpstreamUnavailable.Status, appErrors.ErrUpstreamUnavailable.Message)
	}

	now := s.now()
	for _, goal := range goals {
		record := stats.Extract(payload, goal.GoalType, goal.Metric)
		if record == nil {
			s.logger.Debug("no record for goal", zap.String("goal_id", goal.ID), zap.String("metric", goal.Metric))
			continue
		}
		value := record.Value(goal.GoalType)
		completed, err := s.goals.UpdateProgress(ctx, models.GoalProgressUpdate{
			ID:           goal.ID,
			CurrentValue: value,
			Complete:     value >= goal.TargetValue,
			At:           now,
		})
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			s.metrics.RecordGoalSync("error", result.Completed)
			return result, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update goal progress")
		}
		result.Updated++
		if completed {
			result.Completed++
		}
	}

	s.refreshCharacter(ctx, req.WomID, payload, now)
	s.metrics.RecordGoalSync("ok", result.Completed)
	s.logger.Info("goals synced",
		zap.Int64("wom_id", req.WomID),
		zap.String("account_id", req.AccountID),
		zap.Int("updated", result.Updated),
		zap.Int("completed", result.Completed))
	return result, nil
}

func (s *GoalService) refreshCharacter(ctx context.Context, womID int64, payload stats.Payload, at time.Time) {
	if s.characters == nil {
		return
	}
	totals, ok := stats.PlayerTotals(payload)
	if !ok {
		return
	}
	err := s.characters.UpdateStats(ctx, models.CharacterStatsUpdate{
		WomID:             womID,
		DisplayName:       totals.DisplayName,
		CurrentExperience: totals.Experience,
		EHB:               totals.EHB,
		UpdatedAt:         at,
	})
	if err != nil {
		s.logger.Warn("failed to refresh character totals", zap.Int64("wom_id", womID), zap.Error(err))
	}
}

// CreateGoal records a goal on a character the actor has claimed. The start
// value is the character's current value; gain targets are converted to an
// absolute target here so progress checks only ever compare absolute values.
func (s *GoalService) CreateGoal(ctx context.Context, actor models.Actor, req dto.CreateGoalRequest) (*models.Goal, error) {
	if !actor.Authenticated() {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid goal payload")
	}
	if !stats.ValidMetric(req.GoalType, req.Metric) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown metric: "+req.Metric)
	}
	held, err := s.claims.HeldBy(ctx, actor.AccountID, req.WomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check claim")
	}
	if !held {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "character is not claimed by this account")
	}

	payload, err := s.stats.Get(ctx, req.WomID)
	if err != nil {
		return nil, err
	}
	var start int64
	if record := stats.Extract(payload, req.GoalType, req.Metric); record != nil {
		start = record.Value(req.GoalType)
	}

	target := req.TargetValue
	if req.TargetMode == dto.TargetGain {
		target = start + req.TargetValue
	}
	if target <= start {
		return nil, appErrors.Clone(appErrors.ErrValidation, "target must be above the current value")
	}

	goal := &models.Goal{
		AccountID:    actor.AccountID,
		WomID:        req.WomID,
		GoalType:     req.GoalType,
		Metric:       req.Metric,
		StartValue:   start,
		CurrentValue: start,
		TargetValue:  target,
		TargetDate:   req.TargetDate,
		IsPublic:     req.IsPublic,
		CreatedAt:    s.now(),
	}
	if err := s.goals.Create(ctx, goal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create goal")
	}
	return goal, nil
}

// DeleteGoal removes a goal owned by the actor. Admins may delete any goal.
func (s *GoalService) DeleteGoal(ctx context.Context, actor models.Actor, id string) error {
	if !actor.Authenticated() {
		return appErrors.ErrUnauthorized
	}
	goal, err := s.goals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "goal not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load goal")
	}
	if !actor.CanActFor(goal.AccountID) {
		return appErrors.ErrForbidden
	}
	if err := s.goals.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "goal not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete goal")
	}
	return nil
}

// ListGoals returns an account's goals. The owner and admins see every goal;
// other accounts only see public ones. An empty accountID means the actor's own.
func (s *GoalService) ListGoals(ctx context.Context, actor models.Actor, accountID string) ([]models.Goal, error) {
	if !actor.Authenticated() {
		return nil, appErrors.ErrUnauthorized
	}
	if accountID == "" {
		accountID = actor.AccountID
	}
	filter := models.GoalFilter{AccountID: accountID, OnlyPublic: !actor.CanActFor(accountID)}
	goals, err := s.goals.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list goals")
	}
	return goals, nil
}

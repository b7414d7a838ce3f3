// Package worker runs the periodic goal synchronizer and roster refresh on a
// cron schedule, dispatching each unit of work through a jobs.Queue.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/atayl16/siege-clan-tracker/internal/dto"
	"github.com/atayl16/siege-clan-tracker/internal/models"
	"github.com/atayl16/siege-clan-tracker/internal/service"
	"github.com/atayl16/siege-clan-tracker/pkg/config"
	appErrors "github.com/atayl16/siege-clan-tracker/pkg/errors"
	"github.com/atayl16/siege-clan-tracker/pkg/jobs"
)

const (
	JobGoalSync      = "goal_sync"
	JobRosterRefresh = "roster_refresh"
)

type syncTargetLister interface {
	ListSyncTargets(ctx context.Context) ([]models.SyncTarget, error)
}

type goalSyncer interface {
	Sync(ctx context.Context, actor models.Actor, req dto.SyncGoalsRequest) (dto.SyncGoalsResult, error)
}

type rosterRefresher interface {
	Refresh(ctx context.Context) (service.RosterSummary, error)
}

// Scheduler owns the cron clock and the job queue behind it.
type Scheduler struct {
	targets syncTargetLister
	goals   goalSyncer
	roster  rosterRefresher
	cfg     config.SyncConfig
	logger  *zap.Logger

	queue *jobs.Queue
	cron  *cron.Cron
}

// NewScheduler wires the scheduler. roster may be nil to disable refreshes.
func NewScheduler(targets syncTargetLister, goals goalSyncer, roster rosterRefresher, cfg config.SyncConfig, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	s := &Scheduler{
		targets: targets,
		goals:   goals,
		roster:  roster,
		cfg:     cfg,
		logger:  logger,
		cron:    cron.New(),
	}
	s.queue = jobs.NewQueue("sync", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: 256,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the workers and registers the cron entries.
func (s *Scheduler) Start(ctx context.Context) error {
	s.queue.Start(ctx)
	if s.cfg.GoalSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.GoalSchedule, func() {
			if _, err := s.EnqueueGoalSync(ctx); err != nil {
				s.logger.Warn("goal sync enqueue failed", zap.Error(err))
			}
		}); err != nil {
			s.queue.Stop()
			return fmt.Errorf("goal sync schedule %q: %w", s.cfg.GoalSchedule, err)
		}
	}
	if s.roster != nil && s.cfg.RosterRefreshSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.RosterRefreshSchedule, func() {
			if err := s.EnqueueRosterRefresh(); err != nil && !errors.Is(err, jobs.ErrDuplicate) {
				s.logger.Warn("roster refresh enqueue failed", zap.Error(err))
			}
		}); err != nil {
			s.queue.Stop()
			return fmt.Errorf("roster refresh schedule %q: %w", s.cfg.RosterRefreshSchedule, err)
		}
	}
	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("goal_schedule", s.cfg.GoalSchedule),
		zap.String("roster_schedule", s.cfg.RosterRefreshSchedule),
		zap.Int("workers", s.cfg.Workers))
	return nil
}

// Stop halts the cron clock, waits for running entries and drains the workers.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.queue.Stop()
}

// EnqueueGoalSync queues one job per (account, character) pair with open
// goals. Pairs already queued or running are skipped.
func (s *Scheduler) EnqueueGoalSync(ctx context.Context) (int, error) {
	targets, err := s.targets.ListSyncTargets(ctx)
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, target := range targets {
		err := s.queue.Enqueue(jobs.Job{
			Type:    JobGoalSync,
			Key:     fmt.Sprintf("goal-sync:%s:%d", target.AccountID, target.WomID),
			Payload: target,
		})
		switch {
		case err == nil:
			queued++
		case errors.Is(err, jobs.ErrDuplicate):
		default:
			return queued, err
		}
	}
	s.logger.Info("goal sync queued", zap.Int("targets", len(targets)), zap.Int("queued", queued))
	return queued, nil
}

// EnqueueRosterRefresh queues a single roster refresh.
func (s *Scheduler) EnqueueRosterRefresh() error {
	return s.queue.Enqueue(jobs.Job{Type: JobRosterRefresh, Key: JobRosterRefresh})
}

// SyncAll synchronizes every target inline and returns the combined counts.
// Targets whose upstream fetch fails are logged and skipped.
func (s *Scheduler) SyncAll(ctx context.Context) (dto.SyncGoalsResult, error) {
	var total dto.SyncGoalsResult
	targets, err := s.targets.ListSyncTargets(ctx)
	if err != nil {
		return total, err
	}
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		result, err := s.syncTarget(ctx, target)
		if err != nil {
			s.logger.Warn("goal sync failed",
				zap.String("account_id", target.AccountID),
				zap.Int64("wom_id", target.WomID),
				zap.Error(err))
			continue
		}
		total.Updated += result.Updated
		total.Completed += result.Completed
	}
	return total, nil
}

func (s *Scheduler) handle(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case JobGoalSync:
		target, ok := job.Payload.(models.SyncTarget)
		if !ok {
			return jobs.Permanent(fmt.Errorf("goal sync job %s: unexpected payload %T", job.ID, job.Payload))
		}
		_, err := s.syncTarget(ctx, target)
		if err != nil && !appErrors.Is(err, appErrors.ErrUpstreamUnavailable) {
			return jobs.Permanent(err)
		}
		return err
	case JobRosterRefresh:
		if s.roster == nil {
			return nil
		}
		_, err := s.roster.Refresh(ctx)
		return err
	default:
		return jobs.Permanent(fmt.Errorf("unknown job type %q", job.Type))
	}
}

func (s *Scheduler) syncTarget(ctx context.Context, target models.SyncTarget) (dto.SyncGoalsResult, error) {
	return s.goals.Sync(ctx, models.SystemActor, dto.SyncGoalsRequest{WomID: target.WomID, AccountID: target.AccountID})
}

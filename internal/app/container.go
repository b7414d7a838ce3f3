// Package app assembles repositories, services and background workers from
// configuration. Both the HTTP server and the admin CLI build on it.
package app

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/atayl16/siege-clan-tracker/internal/repository"
	"github.com/atayl16/siege-clan-tracker/internal/service"
	"github.com/atayl16/siege-clan-tracker/internal/worker"
	"github.com/atayl16/siege-clan-tracker/pkg/cache"
	"github.com/atayl16/siege-clan-tracker/pkg/config"
	"github.com/atayl16/siege-clan-tracker/pkg/database"
	"github.com/atayl16/siege-clan-tracker/pkg/wom"
)

// Container holds the wired application graph.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *sqlx.DB
	Redis   *redis.Client
	Metrics *service.MetricsService

	Tokens        *service.TokenService
	Accounts      *service.AccountService
	ClaimCodes    *service.ClaimCodeService
	ClaimRequests *service.ClaimRequestService
	Goals         *service.GoalService
	Ranks         *service.RankService
	Roster        *service.RosterService
	Players       *service.PlayerStatsService
	Scheduler     *worker.Scheduler
}

// Build connects to the database (and Redis when the stats cache is on) and
// wires every service.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	var rdb *redis.Client
	if cfg.StatsCache.Enabled {
		rdb, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	}

	return Wire(cfg, logger, db, rdb), nil
}

// Wire builds the service graph on existing connections. rdb may be nil.
func Wire(cfg *config.Config, logger *zap.Logger, db *sqlx.DB, rdb *redis.Client) *Container {
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := validator.New()
	metrics := service.NewMetricsService()

	characters := repository.NewCharacterRepository(db)
	accounts := repository.NewAccountRepository(db)
	claims := repository.NewClaimRepository(db)
	codes := repository.NewClaimCodeRepository(db)
	requests := repository.NewClaimRequestRepository(db)
	goals := repository.NewGoalRepository(db)

	var playerCache *service.PlayerCache
	if rdb != nil && cfg.StatsCache.Enabled {
		playerCache = service.NewPlayerCache(repository.NewCacheRepository(rdb, logger), metrics, cfg.StatsCache.TTL, logger.Named("cache"))
	}
	player := service.NewPlayerStatsService(wom.NewClient(cfg.WOM), playerCache, metrics, logger.Named("wom"))

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		Redis:   rdb,
		Metrics: metrics,
		Tokens:  service.NewTokenService(cfg.JWT),
	}
	c.Accounts = service.NewAccountService(accounts, logger.Named("accounts"))
	c.ClaimCodes = service.NewClaimCodeService(codes, characters, claims, validate, logger.Named("claim_codes"),
		service.WithDefaultExpiryDays(cfg.Claims.DefaultExpiryDays),
		service.WithClaimCodeMetrics(metrics))
	c.ClaimRequests = service.NewClaimRequestService(requests, characters, claims, validate, logger.Named("claim_requests"),
		service.WithClaimRequestMetrics(metrics))
	c.Goals = service.NewGoalService(goals, claims, characters, player, validate, logger.Named("goals"),
		service.WithGoalMetrics(metrics))
	c.Ranks = service.NewRankService(characters, logger.Named("ranks"))
	c.Players = player
	c.Roster = service.NewRosterService(characters, player, logger.Named("roster"))
	c.Scheduler = worker.NewScheduler(goals, c.Goals, c.Roster, cfg.Sync, logger.Named("scheduler"))
	return c
}

// Close releases connections.
func (c *Container) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}

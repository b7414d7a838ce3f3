package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/atayl16/siege-clan-tracker/internal/repository"
	"github.com/atayl16/siege-clan-tracker/internal/stats"
	appErrors "github.com/atayl16/siege-clan-tracker/pkg/errors"
)

type payloadCacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// PlayerCache keeps recent upstream player payloads so reads that tolerate
// staleness skip the statistics service. A nil *PlayerCache is a valid,
// always-missing cache.
type PlayerCache struct {
	store   payloadCacheStore
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewPlayerCache constructs the cache. ttl defaults to five minutes.
func NewPlayerCache(store payloadCacheStore, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *PlayerCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlayerCache{store: store, metrics: metrics, ttl: ttl, logger: logger}
}

// Enabled reports whether lookups can ever hit.
func (c *PlayerCache) Enabled() bool {
	return c != nil && c.store != nil
}

// Lookup returns the cached payload for a character. Store errors count as misses.
func (c *PlayerCache) Lookup(ctx context.Context, womID int64) (stats.Payload, bool) {
	if !c.Enabled() {
		return nil, false
	}
	start := time.Now()
	var payload stats.Payload
	err := c.store.Get(ctx, repository.PlayerPayloadKey(womID), &payload)
	hit := err == nil && payload != nil
	c.metrics.RecordCacheOperation(hit, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		c.logger.Warn("player cache read failed", zap.Int64("wom_id", womID), zap.Error(err))
	}
	return payload, hit
}

// Store caches a payload. Failures are logged and otherwise ignored.
func (c *PlayerCache) Store(ctx context.Context, womID int64, payload stats.Payload) {
	if !c.Enabled() || payload == nil {
		return
	}
	start := time.Now()
	err := c.store.Set(ctx, repository.PlayerPayloadKey(womID), payload, c.ttl)
	c.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		c.logger.Warn("player cache write failed", zap.Int64("wom_id", womID), zap.Error(err))
	}
}

// Forget drops a character's cached payload.
func (c *PlayerCache) Forget(ctx context.Context, womID int64) {
	if !c.Enabled() {
		return
	}
	if err := c.store.Delete(ctx, repository.PlayerPayloadKey(womID)); err != nil {
		c.logger.Warn("player cache delete failed", zap.Int64("wom_id", womID), zap.Error(err))
	}
}

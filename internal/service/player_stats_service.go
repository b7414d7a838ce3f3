package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/atayl16/siege-clan-tracker/internal/stats"
	appErrors "github.com/atayl16/siege-clan-tracker/pkg/errors"
	"github.com/atayl16/siege-clan-tracker/pkg/wom"
)

type playerFetcher interface {
	PlayerByID(ctx context.Context, womID int64) (map[string]interface{}, error)
	PlayerByUsername(ctx context.Context, username string) (map[string]interface{}, error)
}

// PlayerStatsService fetches character documents from the statistics service,
// optionally through a short-lived cache.
type PlayerStatsService struct {
	client  playerFetcher
	cache   *PlayerCache
	metrics *MetricsService
	logger  *zap.Logger
}

// NewPlayerStatsService constructs the service. cache and metrics may be nil.
func NewPlayerStatsService(client playerFetcher, cache *PlayerCache, metrics *MetricsService, logger *zap.Logger) *PlayerStatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlayerStatsService{client: client, cache: cache, metrics: metrics, logger: logger}
}

// Fetch always asks the statistics service and refreshes the cache. Transport
// failures and non-2xx answers come back as UpstreamUnavailable wrapping the
// client error, so wom.IsNotFound still works on the result. A body that is
// not a JSON object yields an empty payload rather than an error.
func (s *PlayerStatsService) Fetch(ctx context.Context, womID int64) (stats.Payload, error) {
	start := time.Now()
	payload, err := s.client.PlayerByID(ctx, womID)
	s.metrics.ObserveUpstreamFetch(err == nil || errors.Is(err, wom.ErrMalformedPayload), time.Since(start))
	if err != nil {
		if errors.Is(err, wom.ErrMalformedPayload) {
			s.logger.Warn("malformed player payload", zap.Int64("wom_id", womID), zap.Error(err))
			return stats.Payload{}, nil
		}
		if wom.IsNotFound(err) {
			s.cache.Forget(ctx, womID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status,
			appErrors.ErrUpstreamUnavailable.Message)
	}
	s.cache.Store(ctx, womID, payload)
	return payload, nil
}

// Get serves from cache when possible and falls back to Fetch.
func (s *PlayerStatsService) Get(ctx context.Context, womID int64) (stats.Payload, error) {
	if cached, ok := s.cache.Lookup(ctx, womID); ok {
		return cached, nil
	}
	return s.Fetch(ctx, womID)
}

// FetchByUsername resolves a character the clan does not track yet, such as a
// new member before an admin issues their claim code. Results are not cached
// since the cache is keyed by wom id.
func (s *PlayerStatsService) FetchByUsername(ctx context.Context, username string) (stats.Payload, error) {
	start := time.Now()
	payload, err := s.client.PlayerByUsername(ctx, username)
	s.metrics.ObserveUpstreamFetch(err == nil, time.Since(start))
	if err != nil {
		if wom.IsNotFound(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "player "+username+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status,
			appErrors.ErrUpstreamUnavailable.Message)
	}
	if payload == nil {
		payload = stats.Payload{}
	}
	return payload, nil
}

package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "siege"

// MetricsService owns the Prometheus registry for the API, the claim
// workflows and the background synchronizer. All methods are safe on a nil
// receiver so services can run uninstrumented in tests.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	cacheLatency    *prometheus.HistogramVec
	upstreamFetch   *prometheus.HistogramVec
	claimsCreated   *prometheus.CounterVec
	claimOutcomes   *prometheus.CounterVec
	goalSyncRuns    *prometheus.CounterVec
	goalsCompleted  prometheus.Counter
}

func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &MetricsService{
		registry: registry,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "player_cache",
			Name:      "lookups_total",
			Help:      "Player payload cache lookups by result.",
		}, []string{"result"}),
		cacheLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "player_cache",
			Name:      "operation_seconds",
			Help:      "Player payload cache latency by operation.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1},
		}, []string{"operation"}),
		upstreamFetch: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "wom",
			Name:      "fetch_seconds",
			Help:      "Statistics service round trips by outcome.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),
		claimsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "claims_created_total",
			Help:      "Claims created, by the path that created them (code or request).",
		}, []string{"path"}),
		claimOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "claim_outcomes_total",
			Help:      "Claim workflow results by operation and outcome.",
		}, []string{"operation", "outcome"}),
		goalSyncRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "goal_sync",
			Name:      "runs_total",
			Help:      "Goal synchronization runs by outcome.",
		}, []string{"outcome"}),
		goalsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "goal_sync",
			Name:      "goals_completed_total",
			Help:      "Goals transitioned to completed.",
		}),
	}
}

// Registry is exposed for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordCacheOperation records one cache read.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
	m.cacheLatency.WithLabelValues("get").Observe(duration.Seconds())
}

func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("set").Observe(duration.Seconds())
}

func (m *MetricsService) ObserveUpstreamFetch(ok bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.upstreamFetch.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *MetricsService) RecordClaimCreated(path string) {
	if m == nil {
		return
	}
	m.claimsCreated.WithLabelValues(path).Inc()
}

func (m *MetricsService) RecordClaimOutcome(operation, outcome string) {
	if m == nil {
		return
	}
	m.claimOutcomes.WithLabelValues(operation, outcome).Inc()
}

// RecordGoalSync counts a synchronization run and the goals it completed.
func (m *MetricsService) RecordGoalSync(outcome string, completed int) {
	if m == nil {
		return
	}
	m.goalSyncRuns.WithLabelValues(outcome).Inc()
	if completed > 0 {
		m.goalsCompleted.Add(float64(completed))
	}
}

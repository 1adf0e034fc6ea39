// Package metrics exposes Prometheus instrumentation for the HTTP API,
// the recommendation engine, the stock cache and the expiration sweep.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without instrumentation in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pantry"

// Metrics holds all collectors registered by the service.
type Metrics struct {
	gatherer prometheus.Gatherer

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	RecommendationDuration   prometheus.Histogram
	RecommendationCandidates prometheus.Histogram
	RecommendationExcluded   prometheus.Counter
	RecommendationSkipped    prometheus.Counter

	StockCacheHits   prometheus.Counter
	StockCacheMisses prometheus.Counter
	StockCacheErrors *prometheus.CounterVec

	SweepRuns                 *prometheus.CounterVec
	SweepDisabled             prometheus.Counter
	SweepNotificationsCreated prometheus.Counter
}

// New registers the collectors on reg. Use prometheus.NewRegistry() in tests
// to avoid duplicate registration on the default registry.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		RecommendationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "recommendation_duration_seconds",
				Help:      "Duration of recommendation requests including data access",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
		),
		RecommendationCandidates: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "recommendation_candidates",
				Help:      "Number of candidate recipes ranked per request",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		RecommendationExcluded: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recommendation_excluded_total",
				Help:      "Recipes excluded because no non-common ingredient was in stock",
			},
		),
		RecommendationSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recommendation_skipped_total",
				Help:      "Recipes skipped because of corrupt ingredient rows",
			},
		),

		StockCacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stock_cache_hits_total",
				Help:      "Stock set lookups served from Redis",
			},
		),
		StockCacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stock_cache_misses_total",
				Help:      "Stock set lookups that fell through to PostgreSQL",
			},
		),
		StockCacheErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stock_cache_errors_total",
				Help:      "Redis failures by operation",
			},
			[]string{"operation"},
		),

		SweepRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "expiration_sweep_runs_total",
				Help:      "Expiration sweep runs by outcome",
			},
			[]string{"outcome"},
		),
		SweepDisabled: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "expiration_sweep_disabled_total",
				Help:      "Stock batches disabled because they expired",
			},
		),
		SweepNotificationsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "expiration_sweep_notifications_total",
				Help:      "Expiry notifications created",
			},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one finished request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveRecommendation records one ranking run.
func (m *Metrics) ObserveRecommendation(duration time.Duration, candidates, excluded, skipped int) {
	if m == nil {
		return
	}
	m.RecommendationDuration.Observe(duration.Seconds())
	m.RecommendationCandidates.Observe(float64(candidates))
	m.RecommendationExcluded.Add(float64(excluded))
	m.RecommendationSkipped.Add(float64(skipped))
}

// StockCacheHit records a cache hit.
func (m *Metrics) StockCacheHit() {
	if m == nil {
		return
	}
	m.StockCacheHits.Inc()
}

// StockCacheMiss records a cache miss.
func (m *Metrics) StockCacheMiss() {
	if m == nil {
		return
	}
	m.StockCacheMisses.Inc()
}

// StockCacheError records a Redis failure for operation (get, set, del).
func (m *Metrics) StockCacheError(operation string) {
	if m == nil {
		return
	}
	m.StockCacheErrors.WithLabelValues(operation).Inc()
}

// ObserveSweep records one expiration sweep run.
func (m *Metrics) ObserveSweep(disabled, notified int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SweepRuns.WithLabelValues("error").Inc()
		return
	}
	m.SweepRuns.WithLabelValues("ok").Inc()
	m.SweepDisabled.Add(float64(disabled))
	m.SweepNotificationsCreated.Add(float64(notified))
}

// Package metrics exposes the service's Prometheus instruments
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Catalog
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routinematch_catalog_requests_total",
			Help: "Catalog search calls by outcome",
		},
		[]string{"outcome"}, // ok, error, cache_hit, breaker_open
	)

	CatalogLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "routinematch_catalog_request_duration_seconds",
			Help:    "Latency of catalog search calls that reached the upstream",
			Buckets: prometheus.DefBuckets,
		},
	)

	CatalogBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "routinematch_catalog_breaker_state",
			Help: "Catalog circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
	)

	// Recommendations
	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routinematch_recommendations_total",
			Help: "Recommendation requests by family and budget strategy",
		},
		[]string{"family", "strategy"},
	)

	RecommendationFillers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "routinematch_recommendation_fillers_total",
			Help: "Category-page fillers emitted in place of products",
		},
	)

	RecommendationExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "routinematch_recommendation_exhausted_total",
			Help: "Requests for which no usable candidate existed",
		},
	)

	BudgetEscalations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routinematch_budget_escalations_total",
			Help: "Requests whose delivered budget band differs from the requested one",
		},
		[]string{"requested", "used"},
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "routinematch_recommendation_duration_seconds",
			Help:    "End-to-end recommendation pipeline latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
	)

	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routinematch_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "routinematch_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordCatalogRequest counts one upstream catalog call
func RecordCatalogRequest(duration time.Duration, err error) {
	CatalogLatency.Observe(duration.Seconds())
	if err != nil {
		CatalogRequests.WithLabelValues("error").Inc()
		return
	}
	CatalogRequests.WithLabelValues("ok").Inc()
}

// RecordCatalogCacheHit counts a catalog search served from cache
func RecordCatalogCacheHit() {
	CatalogRequests.WithLabelValues("cache_hit").Inc()
}

// RecordBreakerRejection counts a catalog call refused by the open breaker
func RecordBreakerRejection() {
	CatalogRequests.WithLabelValues("breaker_open").Inc()
}

// SetBreakerState publishes the breaker state as 0 closed, 1 half-open, 2 open
func SetBreakerState(state int) {
	CatalogBreakerState.Set(float64(state))
}

// RecordRecommendation records one completed pipeline run
func RecordRecommendation(family, strategy string, fillers int, duration time.Duration) {
	Recommendations.WithLabelValues(family, strategy).Inc()
	if fillers > 0 {
		RecommendationFillers.Add(float64(fillers))
	}
	RecommendationDuration.Observe(duration.Seconds())
}

// RecordExhausted counts a request with no usable candidates
func RecordExhausted() {
	RecommendationExhausted.Inc()
}

// RecordEscalation counts a budget band change
func RecordEscalation(requested, used string) {
	BudgetEscalations.WithLabelValues(requested, used).Inc()
}

// RecordHTTPRequest records one served HTTP request
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

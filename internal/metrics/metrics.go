// SurveyGuard - Survey Bot and Fraud Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/surveyguard

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// scoreBuckets spans the [0,1] score range in tenths.
var scoreBuckets = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}

var (
	// Scoring Metrics
	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "surveyguard_analysis_duration_seconds",
			Help:    "Duration of scoring analyses in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"kind"}, // "behavior", "fraud", "session"
	)

	AnalysisErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surveyguard_analysis_errors_total",
			Help: "Total number of failed scoring analyses",
		},
		[]string{"kind"},
	)

	AnalyzerScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "surveyguard_analyzer_score",
			Help:    "Distribution of per-analyzer sub-scores",
			Buckets: scoreBuckets,
		},
		[]string{"analyzer"},
	)

	AnalyzerInsufficientData = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surveyguard_analyzer_insufficient_data_total",
			Help: "Total number of analyzer runs that fell back to the neutral score",
		},
		[]string{"analyzer"},
	)

	Classifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surveyguard_classifications_total",
			Help: "Total number of classified sessions by verdict and risk level",
		},
		[]string{"kind", "verdict", "risk_level"}, // verdict: "flagged", "clean"
	)

	QualityFlags = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surveyguard_quality_flags_total",
			Help: "Total number of response-quality flags raised",
		},
		[]string{"flag"}, // "straight_lined", "speeder", "flatliner"
	)

	// History Store Metrics
	StoreLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "surveyguard_store_lookup_duration_seconds",
			Help:    "Duration of history store lookups in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreLookupErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surveyguard_store_lookup_errors_total",
			Help: "Total number of failed history store lookups",
		},
		[]string{"operation"},
	)

	StoreRateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surveyguard_store_rate_limited_total",
			Help: "Total number of history store lookups rejected by the rate limiter",
		},
		[]string{"operation"},
	)

	LookupFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surveyguard_lookup_fallbacks_total",
			Help: "Total number of fraud signals degraded to their fallback value",
		},
		[]string{"signal"},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// Redis Metrics
	RedisCommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_command_duration_seconds",
			Help:    "Duration of Redis commands in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
		[]string{"operation"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "country"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry)",
		},
		[]string{"cache_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Event Publishing Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surveyguard_events_published_total",
			Help: "Total number of result events published",
		},
		[]string{"topic"},
	)

	EventPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surveyguard_event_publish_errors_total",
			Help: "Total number of result events that failed to publish",
		},
		[]string{"topic"},
	)

	// Application Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordAnalysis records the duration and outcome of one analysis.
func RecordAnalysis(kind string, duration time.Duration, err error) {
	AnalysisDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if err != nil {
		AnalysisErrors.WithLabelValues(kind).Inc()
	}
}

// RecordAnalyzerScore records one analyzer sub-score.
func RecordAnalyzerScore(analyzer string, score float64, insufficient bool) {
	AnalyzerScore.WithLabelValues(analyzer).Observe(score)
	if insufficient {
		AnalyzerInsufficientData.WithLabelValues(analyzer).Inc()
	}
}

// RecordClassification records a final verdict for a session.
func RecordClassification(kind string, flagged bool, riskLevel string) {
	verdict := "clean"
	if flagged {
		verdict = "flagged"
	}
	Classifications.WithLabelValues(kind, verdict, riskLevel).Inc()
}

// RecordQualityFlag records a response-quality flag.
func RecordQualityFlag(flag string) {
	QualityFlags.WithLabelValues(flag).Inc()
}

// RecordStoreLookup records a history store lookup
func RecordStoreLookup(operation string, duration time.Duration, err error) {
	StoreLookupDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		StoreLookupErrors.WithLabelValues(operation).Inc()
	}
}

// RecordLookupFallback records a fraud signal that degraded to its fallback value.
func RecordLookupFallback(signal string) {
	LookupFallbacks.WithLabelValues(signal).Inc()
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordRedisCommand records a Redis command metric
func RecordRedisCommand(operation string, duration time.Duration) {
	RedisCommandDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
	} else {
		CacheMisses.WithLabelValues(cacheType).Inc()
	}
}

// RecordCircuitBreakerTransition records a state change and updates the state gauge.
// States follow gobreaker's string form: "closed", "half-open", "open".
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(circuitStateValue(to))
}

// RecordCircuitBreakerRequest records the result of a call through a breaker.
func RecordCircuitBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

func circuitStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// RecordEventPublish records a result event publication.
func RecordEventPublish(topic string, err error) {
	if err != nil {
		EventPublishErrors.WithLabelValues(topic).Inc()
		return
	}
	EventsPublished.WithLabelValues(topic).Inc()
}

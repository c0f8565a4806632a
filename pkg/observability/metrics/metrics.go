package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks the number of cache hits
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messageai_cache_hits_total",
			Help: "The total number of cache hits",
		},
	)

	// CacheMisses tracks the number of cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messageai_cache_misses_total",
			Help: "The total number of cache misses",
		},
	)

	// CacheOperationDuration tracks cache operation latency by backend, operation and status
	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "messageai_cache_operation_duration_seconds",
			Help:    "Duration of cache operations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"backend", "operation", "status"},
	)

	// CacheEntriesTotal tracks the current number of entries per cache backend
	CacheEntriesTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "messageai_cache_entries",
			Help: "Current number of entries in the cache",
		},
		[]string{"backend"},
	)

	// ProviderRequests tracks outbound external-provider calls by provider and operation
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messageai_provider_requests_total",
			Help: "The total number of external provider requests",
		},
		[]string{"provider", "operation", "status"},
	)

	// ProviderLatency tracks external-provider call latency
	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "messageai_provider_request_duration_seconds",
			Help:    "Duration of external provider requests in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "operation"},
	)

	// ChatTurns tracks processed chat turns by outcome
	ChatTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messageai_chat_turns_total",
			Help: "The total number of processed chat turns",
		},
		[]string{"status"},
	)

	// ChatTurnDuration tracks end-to-end chat turn latency
	ChatTurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "messageai_chat_turn_duration_seconds",
			Help:    "End-to-end duration of a chat turn in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)

// RecordCacheHit increments the cache hit counter
func RecordCacheHit() {
	CacheHits.Inc()
}

// RecordCacheMiss increments the cache miss counter
func RecordCacheMiss() {
	CacheMisses.Inc()
}

// RecordCacheOperation records a cache operation and its duration
func RecordCacheOperation(backend, operation, status string, duration float64) {
	CacheOperationDuration.WithLabelValues(backend, operation, status).Observe(duration)
}

// UpdateCacheEntries sets the current entry count for a cache backend
func UpdateCacheEntries(backend string, count int) {
	CacheEntriesTotal.WithLabelValues(backend).Set(float64(count))
}

// RecordProviderRequest records an external provider call outcome
func RecordProviderRequest(provider, operation, status string) {
	ProviderRequests.WithLabelValues(provider, operation, status).Inc()
}

// RecordProviderLatency records the latency of an external provider call
func RecordProviderLatency(provider, operation string, seconds float64) {
	ProviderLatency.WithLabelValues(provider, operation).Observe(seconds)
}

// RecordChatTurn records a processed chat turn and its duration
func RecordChatTurn(status string, seconds float64) {
	ChatTurns.WithLabelValues(status).Inc()
	ChatTurnDuration.Observe(seconds)
}

// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingest metrics
	MigrationsReceived  prometheus.Counter
	TradeFramesReceived *prometheus.CounterVec
	WSReconnects        prometheus.Counter
	WSCooldowns         prometheus.Counter

	// Enrichment metrics
	EnrichmentDuration *prometheus.HistogramVec
	EnrichmentTimeouts *prometheus.CounterVec

	// Provider metrics
	ProviderCallLatency  *prometheus.HistogramVec
	ProviderCallErrors   *prometheus.CounterVec
	ProviderKeyRotations *prometheus.CounterVec
	ProviderCacheHits    *prometheus.CounterVec

	// Scoring metrics
	TokensAnalyzed *prometheus.CounterVec
	ScoreHistogram prometheus.Histogram

	// Oracle metrics
	SolPriceFetches *prometheus.CounterVec

	// Gateway metrics
	SSESubscribers   prometheus.Gauge
	BusEventsDropped prometheus.Counter

	// History metrics
	HistorySize prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "pumpfun_radar"
	}

	return &Metrics{
		MigrationsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "migrations_received_total",
			Help:      "Total number of migration events received from upstream",
		}),
		TradeFramesReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "trade_frames_received_total",
			Help:      "Total number of buy/sell frames received from upstream",
		}, []string{"type"}),
		WSReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "ws_reconnects_total",
			Help:      "Total number of upstream WebSocket reconnect attempts",
		}),
		WSCooldowns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "ws_cooldowns_total",
			Help:      "Total number of reconnect cooldown periods entered",
		}),

		EnrichmentDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "enrich",
			Name:      "duration_seconds",
			Help:      "Enrichment duration in seconds by mode",
			Buckets:   []float64{0.5, 1, 2, 4, 6, 8, 10, 15},
		}, []string{"mode"}),
		EnrichmentTimeouts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrich",
			Name:      "timeouts_total",
			Help:      "Total number of enrichment sub-tasks hitting the deadline",
		}, []string{"task"}),

		ProviderCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "call_latency_seconds",
			Help:      "Provider call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "operation"}),
		ProviderCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "call_errors_total",
			Help:      "Total number of provider call errors by kind",
		}, []string{"provider", "kind"}),
		ProviderKeyRotations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "key_rotations_total",
			Help:      "Total number of credential rotations triggered by 401/429",
		}, []string{"provider"}),
		ProviderCacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "cache_hits_total",
			Help:      "Total number of TTL cache hits",
		}, []string{"cache"}),

		TokensAnalyzed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "tokens_analyzed_total",
			Help:      "Total number of tokens analyzed by result",
		}, []string{"result"}),
		ScoreHistogram: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "score",
			Help:      "Distribution of safety scores",
			Buckets:   []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		SolPriceFetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "sol_price_fetches_total",
			Help:      "Total number of SOL price fetch attempts by source and status",
		}, []string{"source", "status"}),

		SSESubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "sse_subscribers",
			Help:      "Current number of connected SSE subscribers",
		}),
		BusEventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "bus_events_dropped_total",
			Help:      "Total number of bus events dropped on slow subscribers",
		}),

		HistorySize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "history_size",
			Help:      "Current number of records in the bounded history",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordMigration increments the migrations received counter.
func RecordMigration() {
	DefaultMetrics.MigrationsReceived.Inc()
}

// RecordTradeFrame increments the trade frame counter for a side.
func RecordTradeFrame(side string) {
	DefaultMetrics.TradeFramesReceived.WithLabelValues(side).Inc()
}

// RecordWSReconnect increments the reconnect counter.
func RecordWSReconnect() {
	DefaultMetrics.WSReconnects.Inc()
}

// RecordWSCooldown increments the cooldown counter.
func RecordWSCooldown() {
	DefaultMetrics.WSCooldowns.Inc()
}

// RecordEnrichment records enrichment duration for a mode.
func RecordEnrichment(mode string, seconds float64) {
	DefaultMetrics.EnrichmentDuration.WithLabelValues(mode).Observe(seconds)
}

// RecordEnrichmentTimeout records a sub-task hitting the deadline.
func RecordEnrichmentTimeout(task string) {
	DefaultMetrics.EnrichmentTimeouts.WithLabelValues(task).Inc()
}

// RecordProviderCall records provider call latency and an optional error kind.
func RecordProviderCall(provider, operation string, seconds float64, errKind string) {
	DefaultMetrics.ProviderCallLatency.WithLabelValues(provider, operation).Observe(seconds)
	if errKind != "" {
		DefaultMetrics.ProviderCallErrors.WithLabelValues(provider, errKind).Inc()
	}
}

// RecordKeyRotation records a credential rotation for a provider.
func RecordKeyRotation(provider string) {
	DefaultMetrics.ProviderKeyRotations.WithLabelValues(provider).Inc()
}

// RecordCacheHit records a TTL cache hit.
func RecordCacheHit(cache string) {
	DefaultMetrics.ProviderCacheHits.WithLabelValues(cache).Inc()
}

// RecordAnalyzed records a scored token with its result ("passed"/"filtered").
func RecordAnalyzed(result string, score int) {
	DefaultMetrics.TokensAnalyzed.WithLabelValues(result).Inc()
	DefaultMetrics.ScoreHistogram.Observe(float64(score))
}

// RecordSolPriceFetch records a price source attempt.
func RecordSolPriceFetch(source, status string) {
	DefaultMetrics.SolPriceFetches.WithLabelValues(source, status).Inc()
}

// SetSSESubscribers updates the subscriber gauge.
func SetSSESubscribers(n int) {
	DefaultMetrics.SSESubscribers.Set(float64(n))
}

// RecordBusDrop records an event dropped on a slow subscriber.
func RecordBusDrop() {
	DefaultMetrics.BusEventsDropped.Inc()
}

// SetHistorySize updates the history size gauge.
func SetHistorySize(n int) {
	DefaultMetrics.HistorySize.Set(float64(n))
}

// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"collider-lab/internal/domain"
	"collider-lab/internal/registry"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Generation metrics
	EventsGenerated   *prometheus.CounterVec
	EventFailures     *prometheus.CounterVec
	SamplingAttempts  *prometheus.HistogramVec
	GenerationLatency *prometheus.HistogramVec

	// Registry metrics
	RegistrySize *prometheus.GaugeVec

	// Batch metrics
	BatchRunsTotal     *prometheus.CounterVec
	BatchDuration      *prometheus.HistogramVec
	AggregatesComputed prometheus.Counter
	ReportsGenerated   prometheus.Counter

	// Feed metrics
	FeedSubscribers prometheus.Gauge
	FeedDropped     prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "collider_lab"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Generation metrics
		EventsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "events_total",
			Help:      "Total number of events generated by channel",
		}, []string{"channel"}),
		EventFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "failures_total",
			Help:      "Total number of failed generation requests by channel and stage",
		}, []string{"channel", "stage"}),
		SamplingAttempts: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "attempts",
			Help:      "Rejection-sampling attempts consumed per request",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 9),
		}, []string{"channel"}),
		GenerationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "latency_seconds",
			Help:      "Generation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"channel"}),

		// Registry metrics
		RegistrySize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "particles",
			Help:      "Number of registry records by pool",
		}, []string{"pool"}),

		// Batch metrics
		BatchRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "runs_total",
			Help:      "Total number of batch runs by phase and status",
		}, []string{"phase", "status"}),
		BatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "duration_seconds",
			Help:      "Batch phase duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"phase"}),
		AggregatesComputed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "aggregates_computed_total",
			Help:      "Total number of channel aggregates computed",
		}),
		ReportsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		// Feed metrics
		FeedSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "subscribers",
			Help:      "Current number of event feed subscribers",
		}),
		FeedDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "dropped_total",
			Help:      "Total number of subscribers dropped for falling behind",
		}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordEvent records the outcome of one generation request.
// An empty stage marks a successful event.
func (m *Metrics) RecordEvent(channel domain.Channel, stage domain.Stage, attempts int, seconds float64) {
	ch := string(channel)
	if ch == "" {
		ch = string(domain.ChannelUnknown)
	}
	if stage == "" {
		m.EventsGenerated.WithLabelValues(ch).Inc()
	} else {
		m.EventFailures.WithLabelValues(ch, string(stage)).Inc()
	}
	if attempts > 0 {
		m.SamplingAttempts.WithLabelValues(ch).Observe(float64(attempts))
	}
	m.GenerationLatency.WithLabelValues(ch).Observe(seconds)
}

// SetRegistryStats publishes registry pool sizes.
func (m *Metrics) SetRegistryStats(s registry.Stats) {
	m.RegistrySize.WithLabelValues("all").Set(float64(s.Particles))
	m.RegistrySize.WithLabelValues("hadrons").Set(float64(s.Hadrons))
	m.RegistrySize.WithLabelValues("leptons").Set(float64(s.Leptons))
	m.RegistrySize.WithLabelValues("gauge_bosons").Set(float64(s.GaugeBosons))
	m.RegistrySize.WithLabelValues("resonances").Set(float64(s.Resonances))
}

// RecordBatchRun records a batch phase.
func (m *Metrics) RecordBatchRun(phase, status string, durationSeconds float64) {
	m.BatchRunsTotal.WithLabelValues(phase, status).Inc()
	m.BatchDuration.WithLabelValues(phase).Observe(durationSeconds)
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// SetFeedSubscribers updates the subscriber gauge.
func (m *Metrics) SetFeedSubscribers(n int) {
	m.FeedSubscribers.Set(float64(n))
}

// RecordFeedDrop counts a subscriber dropped by the feed.
func (m *Metrics) RecordFeedDrop() {
	m.FeedDropped.Inc()
}

// RecordAggregates counts channel aggregates produced by a run.
func (m *Metrics) RecordAggregates(n int) {
	m.AggregatesComputed.Add(float64(n))
}

// RecordReport counts a written report file.
func (m *Metrics) RecordReport() {
	m.ReportsGenerated.Inc()
}

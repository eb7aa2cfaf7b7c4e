// Package metrics exposes planner instrumentation to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "skyplan"

// Metrics holds the Prometheus counters and histograms for the planner.
type Metrics struct {
	NightsComputed   prometheus.Counter
	SamplesEvaluated prometheus.Counter
	ObservableHours  prometheus.Histogram
	NightDuration    prometheus.Histogram

	// Semester and multi-target runs.
	SemesterDuration prometheus.Histogram
	Transitions      *prometheus.CounterVec // labels: status={emerging,occluding}

	// Ephemeris lookups.
	EphemerisErrors prometheus.Counter
	EphemerisCache  *prometheus.CounterVec // labels: kind={sun,moon_position,moon_illumination}, result={hit,miss}

	gatherer prometheus.Gatherer
}

// NewMetrics creates and registers all planner metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(m.collectors()...)
	m.gatherer = prometheus.DefaultGatherer
	return m
}

// NewMetricsForTesting creates Metrics on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics(false)
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.collectors()...)
	m.gatherer = reg
	return m
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		NightsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nights_computed_total",
			Help:      help("Total nights sampled."),
		}),
		SamplesEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_evaluated_total",
			Help:      help("Total target/instant evaluations."),
		}),
		ObservableHours: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "night_observable_hours",
			Help:      help("Observable hours per computed night."),
			Buckets:   []float64{0, 1, 2, 4, 6, 8, 10, 12},
		}),
		NightDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "night_duration_seconds",
			Help:      help("Time spent sampling one night."),
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		SemesterDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "semester_duration_seconds",
			Help:      help("Time spent computing a semester for one target."),
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      help("Refined observability transitions by status."),
		}, []string{"status"}),
		EphemerisErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ephemeris_errors_total",
			Help:      help("Ephemeris lookups that failed."),
		}),
		EphemerisCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ephemeris_cache_total",
			Help:      help("Ephemeris cache lookups by kind and result."),
		}, []string{"kind", "result"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.NightsComputed,
		m.SamplesEvaluated,
		m.ObservableHours,
		m.NightDuration,
		m.SemesterDuration,
		m.Transitions,
		m.EphemerisErrors,
		m.EphemerisCache,
	}
}

// RecordCacheLookup counts an ephemeris cache hit or miss. Its signature
// matches the ephem.NewCachedProvider hook.
func (m *Metrics) RecordCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.EphemerisCache.WithLabelValues(kind, result).Inc()
}

// Handler serves the registry these metrics were registered with.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "floodfas"

// Metrics holds the Prometheus counters and histograms for appraisal runs and the API.
type Metrics struct {
	// Appraisal runs.
	Appraisals          *prometheus.CounterVec // labels: outcome={success,invalid,error}
	AppraisalDuration   prometheus.Histogram
	PropertiesAppraised *prometheus.CounterVec // labels: class={residential,non_residential}
	PropertiesSkipped   *prometheus.CounterVec // labels: reason
	GroundLevelsFilled  prometheus.Counter
	SnapshotsSaved      prometheus.Counter

	// HTTP.
	HTTPRequests        *prometheus.CounterVec   // labels: method, route, status
	HTTPRequestDuration *prometheus.HistogramVec // labels: method, route
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer)
}

// NewMetricsForTesting creates Metrics on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(prometheus.NewRegistry())
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Appraisals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appraisals_total",
			Help:      "Detailed appraisal runs by outcome.",
		}, []string{"outcome"}),
		AppraisalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "appraisal_duration_seconds",
			Help:      "Duration of a complete damage and benefit run.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		PropertiesAppraised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "properties_appraised_total",
			Help:      "Properties with computed damages by class.",
		}, []string{"class"}),
		PropertiesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "properties_skipped_total",
			Help:      "Included properties left out of a run by reason.",
		}, []string{"reason"}),
		GroundLevelsFilled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ground_levels_filled_total",
			Help:      "Property ground levels resolved from elevation grids.",
		}),
		SnapshotsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_saved_total",
			Help:      "Appraisal snapshots persisted.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.Appraisals,
		m.AppraisalDuration,
		m.PropertiesAppraised,
		m.PropertiesSkipped,
		m.GroundLevelsFilled,
		m.SnapshotsSaved,
		m.HTTPRequests,
		m.HTTPRequestDuration,
	)

	return m
}

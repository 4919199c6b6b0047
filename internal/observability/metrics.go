package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Calculation metrics.
	Calculations        *prometheus.CounterVec // labels: outcome={success,rejected,aborted,storage_error,busy}
	CalculationDuration prometheus.Histogram
	EntriesPerRun       prometheus.Histogram

	// History metrics.
	HistoryRecords   prometheus.Gauge
	CumulativeCfpKg  prometheus.Gauge
	StorageFailures  prometheus.Counter
	RecordsPublished *prometheus.CounterVec // labels: outcome={success,error}

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,not_found,error}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Calculations,
		m.CalculationDuration,
		m.EntriesPerRun,
		m.HistoryRecords,
		m.CumulativeCfpKg,
		m.StorageFailures,
		m.RecordsPublished,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cfp",
			Name:      "calculations_total",
			Help:      "Daily calculation runs by outcome.",
		}, []string{"outcome"}),
		CalculationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cfp",
			Name:      "calculation_duration_seconds",
			Help:      "Duration of a complete daily calculation run.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		EntriesPerRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cfp",
			Name:      "entries_per_run",
			Help:      "Number of pending entries processed per daily run.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 20},
		}),
		HistoryRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cfp",
			Name:      "history_records",
			Help:      "Number of daily records in the history.",
		}),
		CumulativeCfpKg: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cfp",
			Name:      "cumulative_cfp_kg",
			Help:      "Sum of all recorded daily CFP totals in kg CO2.",
		}),
		StorageFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cfp",
			Name:      "storage_failures_total",
			Help:      "Durable storage writes that failed.",
		}),
		RecordsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cfp",
			Name:      "records_published_total",
			Help:      "Daily records published to Kafka by outcome.",
		}, []string{"outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cfp",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cfp",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cfp",
			Name:      "geocode_api_duration_seconds",
			Help:      "Nominatim API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// inflow pipeline.
type Metrics struct {
	DatasetLoads        prometheus.Counter
	DatasetLoadFailures prometheus.Counter
	DatasetReady        prometheus.Gauge
	DatasetRecords      prometheus.Gauge
	RowsDropped         prometheus.Counter
	LoadDuration        prometheus.Histogram

	// Forecast path metrics.
	ForecastsComputed prometheus.Counter
	ForecastDuration  prometheus.Histogram
	AnalogYears       prometheus.Histogram
	DegenerateFits    prometheus.Counter

	// Event publishing metrics.
	EventsPublished  prometheus.Counter
	PublishErrors    prometheus.Counter
	PublisherEnabled prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		DatasetLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "inflow",
			Name:      "dataset_loads_total",
			Help:      "Total successful dataset loads.",
		}),
		DatasetLoadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "inflow",
			Name:      "dataset_load_failures_total",
			Help:      "Total dataset load attempts that failed.",
		}),
		DatasetReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "inflow",
			Name:      "dataset_ready",
			Help:      "1 when a dataset snapshot is available, 0 before the first load.",
		}),
		DatasetRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "inflow",
			Name:      "dataset_records",
			Help:      "Number of year records in the current dataset snapshot.",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "inflow",
			Name:      "rows_dropped_total",
			Help:      "Total source rows dropped for lacking a parseable water year.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "inflow",
			Name:      "load_duration_seconds",
			Help:      "Duration of a complete fetch-parse-normalize-fit cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ForecastsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "inflow",
			Name:      "forecasts_computed_total",
			Help:      "Total forecast computations served.",
		}),
		ForecastDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "inflow",
			Name:      "forecast_duration_seconds",
			Help:      "Duration of a single forecast computation.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		AnalogYears: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "inflow",
			Name:      "analog_years",
			Help:      "Number of analog years returned per forecast.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		}),
		DegenerateFits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "inflow",
			Name:      "degenerate_fits_total",
			Help:      "Total fits that were degenerate and retained previous coefficients.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "inflow",
			Name:      "events_published_total",
			Help:      "Total forecast events published to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "inflow",
			Name:      "publish_errors_total",
			Help:      "Total forecast event publish failures.",
		}),
		PublisherEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "inflow",
			Name:      "publisher_enabled",
			Help:      "1 when forecast event publishing is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.DatasetLoads,
		m.DatasetLoadFailures,
		m.DatasetReady,
		m.DatasetRecords,
		m.RowsDropped,
		m.LoadDuration,
		m.ForecastsComputed,
		m.ForecastDuration,
		m.AnalogYears,
		m.DegenerateFits,
		m.EventsPublished,
		m.PublishErrors,
		m.PublisherEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with nothing registered, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		DatasetLoads:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "inflow", Name: "dataset_loads_total"}),
		DatasetLoadFailures: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "inflow", Name: "dataset_load_failures_total"}),
		DatasetReady:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "inflow", Name: "dataset_ready"}),
		DatasetRecords:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "inflow", Name: "dataset_records"}),
		RowsDropped:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "inflow", Name: "rows_dropped_total"}),
		LoadDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "inflow", Name: "load_duration_seconds"}),
		ForecastsComputed:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "inflow", Name: "forecasts_computed_total"}),
		ForecastDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "inflow", Name: "forecast_duration_seconds"}),
		AnalogYears:         prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "inflow", Name: "analog_years"}),
		DegenerateFits:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "inflow", Name: "degenerate_fits_total"}),
		EventsPublished:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "inflow", Name: "events_published_total"}),
		PublishErrors:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "inflow", Name: "publish_errors_total"}),
		PublisherEnabled:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "inflow", Name: "publisher_enabled"}),
	}
}

package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "accident_eda"

// Metrics holds the Prometheus counters, histograms, and gauges for one
// analysis run. They are exported as a textfile when the run completes.
type Metrics struct {
	registry *prometheus.Registry

	RecordsLoaded  prometheus.Counter
	RecordsUntimed prometheus.Gauge
	ChartsRendered prometheus.Counter
	LastRunSuccess prometheus.Gauge

	// RowsDropped is labelled by drop reason, RenderErrors by chart name and
	// StageDuration by stage (load, derive, aggregate, render, report).
	RowsDropped     *prometheus.CounterVec
	RenderErrors    *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	AggregateTables prometheus.Gauge
}

// NewMetrics creates all run metrics on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RecordsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_loaded_total",
			Help:      "Accident records retained after loading.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Malformed input rows dropped by reason.",
		}, []string{"reason"}),
		RecordsUntimed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_without_timestamp",
			Help:      "Retained records excluded from time-based aggregates.",
		}),
		ChartsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charts_rendered_total",
			Help:      "Chart artifacts written successfully.",
		}),
		RenderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_errors_total",
			Help:      "Chart artifacts that could not be written.",
		}, []string{"chart"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		AggregateTables: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "aggregate_tables",
			Help:      "Aggregate tables produced by the run.",
		}),
	}

	m.registry.MustRegister(
		m.RecordsLoaded,
		m.RowsDropped,
		m.RecordsUntimed,
		m.ChartsRendered,
		m.RenderErrors,
		m.StageDuration,
		m.LastRunSuccess,
		m.AggregateTables,
	)

	return m
}

// Gatherer exposes the run registry, mainly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes all metrics in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

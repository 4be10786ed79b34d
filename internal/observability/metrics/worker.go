package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	importTotal    *prometheus.CounterVec
	importDuration *prometheus.HistogramVec
	importInFlight prometheus.Gauge
	importedRows   *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	importTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "songbrain",
			Subsystem: "worker",
			Name:      "catalog_import_total",
			Help:      "Total catalog imports by status.",
		},
		[]string{"service", "status"},
	)
	importDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "songbrain",
			Subsystem: "worker",
			Name:      "catalog_import_duration_seconds",
			Help:      "Catalog import duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	importInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "songbrain",
			Subsystem: "worker",
			Name:      "catalog_import_in_flight",
			Help:      "Number of in-flight catalog imports.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	importedRows := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "songbrain",
			Subsystem: "worker",
			Name:      "catalog_import_rows",
			Help:      "Distribution of song rows upserted per import.",
			Buckets:   []float64{1, 10, 50, 100, 500, 1000, 5000},
		},
		[]string{"service"},
	)

	registry.MustRegister(importTotal, importDuration, importInFlight, importedRows)

	return &WorkerMetrics{
		registry:       registry,
		importTotal:    importTotal,
		importDuration: importDuration,
		importInFlight: importInFlight,
		importedRows:   importedRows,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartImport() {
	m.importInFlight.Inc()
}

func (m *WorkerMetrics) FinishImport(service string, rows int, duration time.Duration, err error) {
	m.importInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.importTotal.WithLabelValues(service, status).Inc()
	m.importDuration.WithLabelValues(service, status).Observe(duration.Seconds())
	if err == nil {
		m.importedRows.WithLabelValues(service).Observe(float64(rows))
	}
}

// Package metrics exposes Prometheus collectors for footprint estimates and
// coefficient refreshes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rshade/footprint-estimator/internal/carbon"
)

const namespace = "footprint"

// Refresh outcomes.
const (
	OutcomeFetched  = "fetched"
	OutcomeFallback = "fallback"
)

// Metrics holds the service collectors on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	estimates        *prometheus.CounterVec
	validationErrors *prometheus.CounterVec
	totals           *prometheus.HistogramVec
	refreshes        *prometheus.CounterVec
	refreshDuration  prometheus.Histogram
	gridIntensity    prometheus.Gauge
}

// New creates and registers the collectors, along with the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "estimates_total",
			Help:      "Footprint estimates produced, by mode.",
		}, []string{"mode"}),
		validationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_errors_total",
			Help:      "Detailed inputs rejected, by offending field.",
		}, []string{"field"}),
		totals: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "estimate_total_kgco2e",
			Help:      "Yearly footprint totals in kgCO2e, by mode.",
			Buckets:   []float64{0, 1000, 2500, 5000, 7500, 10000, 20000},
		}, []string{"mode"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coefficient_refreshes_total",
			Help:      "Coefficient table refreshes, by outcome.",
		}, []string{"outcome"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "coefficient_refresh_duration_seconds",
			Help:      "Time spent refreshing the coefficient table.",
			Buckets:   prometheus.DefBuckets,
		}),
		gridIntensity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "grid_intensity_kgco2e_per_kwh",
			Help:      "Electricity emission factor currently in use.",
		}),
	}

	m.registry.MustRegister(
		m.estimates,
		m.validationErrors,
		m.totals,
		m.refreshes,
		m.refreshDuration,
		m.gridIntensity,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveEstimate records a finished estimate.
func (m *Metrics) ObserveEstimate(result carbon.Result) {
	mode := string(result.Mode)
	m.estimates.WithLabelValues(mode).Inc()
	m.totals.WithLabelValues(mode).Observe(result.Total)
}

// ObserveValidationError records a rejected detailed input.
func (m *Metrics) ObserveValidationError(field string) {
	m.validationErrors.WithLabelValues(field).Inc()
}

// ObserveRefresh implements carbon.RefreshObserver.
func (m *Metrics) ObserveRefresh(fetched bool, electricity float64, elapsed time.Duration) {
	outcome := OutcomeFallback
	if fetched {
		outcome = OutcomeFetched
	}
	m.refreshes.WithLabelValues(outcome).Inc()
	m.refreshDuration.Observe(elapsed.Seconds())
	m.gridIntensity.Set(electricity)
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

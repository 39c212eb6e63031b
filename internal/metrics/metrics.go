// Package metrics defines the Prometheus collectors for the server and
// exposes an HTTP handler for scraping them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Refresh outcome label values.
const (
	RefreshOutcomeUpdated   = "updated"
	RefreshOutcomeUnchanged = "unchanged"
	RefreshOutcomeError     = "error"
)

// Metrics holds all Prometheus collectors for the server.
// All methods are safe on a nil receiver so instrumented code paths can run
// without a registry in tests.
type Metrics struct {
	registry *prometheus.Registry

	refreshTotal    *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	searchTotal     *prometheus.CounterVec
	searchLatency   *prometheus.HistogramVec
	pagesIndexed    *prometheus.GaugeVec
}

// New creates and registers all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		refreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docdex_refresh_total",
				Help: "Total docset refresh attempts by outcome (updated, unchanged, error).",
			},
			[]string{"outcome"},
		),
		refreshDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docdex_refresh_duration_seconds",
				Help:    "Duration of a full refresh pass across all docsets.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		searchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docdex_search_total",
				Help: "Total search tool invocations by tool and result (hit, miss, error).",
			},
			[]string{"tool", "result"},
		),
		searchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docdex_search_latency_seconds",
				Help:    "Search tool latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"tool"},
		),
		pagesIndexed: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "docdex_pages_indexed",
				Help: "Number of documentation pages indexed per docset.",
			},
			[]string{"docset"},
		),
	}

	m.registry.MustRegister(
		m.refreshTotal,
		m.refreshDuration,
		m.searchTotal,
		m.searchLatency,
		m.pagesIndexed,
	)
	return m
}

// Handler returns the /metrics scrape handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRefresh records one docset refresh attempt.
func (m *Metrics) ObserveRefresh(outcome string) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(outcome).Inc()
}

// ObserveRefreshPass records the duration of a full refresh pass.
func (m *Metrics) ObserveRefreshPass(d time.Duration) {
	if m == nil {
		return
	}
	m.refreshDuration.Observe(d.Seconds())
}

// ObserveSearch records one search tool invocation.
func (m *Metrics) ObserveSearch(tool, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.searchTotal.WithLabelValues(tool, result).Inc()
	m.searchLatency.WithLabelValues(tool).Observe(d.Seconds())
}

// SetPagesIndexed records the page count for a docset.
func (m *Metrics) SetPagesIndexed(docset string, count int) {
	if m == nil {
		return
	}
	m.pagesIndexed.WithLabelValues(docset).Set(float64(count))
}

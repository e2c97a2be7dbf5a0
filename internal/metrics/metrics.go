// Package metrics holds the Prometheus instruments for fetching and indicator work.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all counters and histograms. A nil *Metrics is valid and records nothing.
type Metrics struct {
	FetchTotal        *prometheus.CounterVec // labels: provider, outcome
	FetchDuration     *prometheus.HistogramVec
	CacheHits         prometheus.Counter
	CandlesNormalized prometheus.Counter
	RSIComputeDur     prometheus.Histogram

	registry *prometheus.Registry
}

// New creates the instruments and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "candlescope_fetch_total",
			Help: "Upstream fetches by provider and outcome",
		}, []string{"provider", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "candlescope_fetch_duration_seconds",
			Help:    "Upstream fetch latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "candlescope_cache_hits_total",
			Help: "Provider responses served from cache",
		}),
		CandlesNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "candlescope_candles_normalized_total",
			Help: "Candles produced by the normalizer",
		}),
		RSIComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "candlescope_rsi_compute_seconds",
			Help:    "Time spent annotating a series with RSI",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05},
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.FetchTotal,
		m.FetchDuration,
		m.CacheHits,
		m.CandlesNormalized,
		m.RSIComputeDur,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveFetch records one upstream call.
func (m *Metrics) ObserveFetch(provider string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.FetchTotal.WithLabelValues(provider, outcome).Inc()
	m.FetchDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

// CacheHit counts a cache hit.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

// Normalized counts produced candles.
func (m *Metrics) Normalized(n int) {
	if m == nil {
		return
	}
	m.CandlesNormalized.Add(float64(n))
}

// ObserveRSI records annotation time.
func (m *Metrics) ObserveRSI(start time.Time) {
	if m == nil {
		return
	}
	m.RSIComputeDur.Observe(time.Since(start).Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

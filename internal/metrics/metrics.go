// Package metrics exposes counters for orchestrated analysis runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "resume_radar"

const (
	StatusSuccess    = "success"
	StatusFailed     = "failed"
	StatusSuperseded = "superseded"
	StatusSkipped    = "skipped"
)

// Metrics holds the collectors on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal         *prometheus.CounterVec
	runDuration       prometheus.Histogram
	refinementsTotal  *prometheus.CounterVec
	marketFetches     *prometheus.CounterVec
	marketDuration    prometheus.Histogram
	postingsIngested  prometheus.Gauge
	postingsFiltered  prometheus.Gauge
	sessionIterations prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total analysis runs by outcome.",
		},
		[]string{"status"},
	)
	runDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Analysis request duration in seconds.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
		},
	)
	refinementsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "refinements_total",
			Help:      "Total refinement requests by outcome.",
		},
		[]string{"status"},
	)
	marketFetches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "fetches_total",
			Help:      "Total market intelligence loads by mode and outcome.",
		},
		[]string{"mode", "status"},
	)
	marketDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "fetch_duration_seconds",
			Help:      "Market intelligence load duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	postingsIngested := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "postings_ingested",
			Help:      "Postings held by the job board after the last market load.",
		},
	)
	postingsFiltered := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "postings_filtered",
			Help:      "Postings passing the current filter criteria.",
		},
	)
	sessionIterations := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "current_iteration",
			Help:      "Current iteration of the active analysis session.",
		},
	)

	registry.MustRegister(
		runsTotal,
		runDuration,
		refinementsTotal,
		marketFetches,
		marketDuration,
		postingsIngested,
		postingsFiltered,
		sessionIterations,
	)

	return &Metrics{
		registry:          registry,
		runsTotal:         runsTotal,
		runDuration:       runDuration,
		refinementsTotal:  refinementsTotal,
		marketFetches:     marketFetches,
		marketDuration:    marketDuration,
		postingsIngested:  postingsIngested,
		postingsFiltered:  postingsFiltered,
		sessionIterations: sessionIterations,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordRun(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(status).Inc()
	if status == StatusSuccess {
		m.runDuration.Observe(duration.Seconds())
	}
}

func (m *Metrics) RecordRefinement(status string, iteration int) {
	if m == nil {
		return
	}
	m.refinementsTotal.WithLabelValues(status).Inc()
	m.sessionIterations.Set(float64(iteration))
}

func (m *Metrics) RecordMarketFetch(forced bool, status string, duration time.Duration) {
	if m == nil {
		return
	}
	mode := "cached"
	if forced {
		mode = "forced"
	}
	m.marketFetches.WithLabelValues(mode, status).Inc()
	if status == StatusSuccess {
		m.marketDuration.Observe(duration.Seconds())
	}
}

func (m *Metrics) RecordPostings(total, filtered int) {
	if m == nil {
		return
	}
	m.postingsIngested.Set(float64(total))
	m.postingsFiltered.Set(float64(filtered))
}

func (m *Metrics) SetIteration(iteration int) {
	if m == nil {
		return
	}
	m.sessionIterations.Set(float64(iteration))
}

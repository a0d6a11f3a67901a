package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jalad-shrimali/cdr-analyzer/engine"
)

// metrics are registered per Server so several servers (and tests) can live
// in one process.
type metrics struct {
	reg      *prometheus.Registry
	analyses *prometheus.CounterVec
	duration prometheus.Histogram
	rows     *prometheus.CounterVec
	fatal    prometheus.Counter
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &metrics{
		reg: reg,
		analyses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cdr",
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Analysis runs by final status.",
		}, []string{"status"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cdr",
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Wall time of an analysis run.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		rows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cdr",
			Subsystem: "analysis",
			Name:      "rows_total",
			Help:      "Input rows by outcome.",
		}, []string{"outcome"}),
		fatal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "cdr",
			Subsystem: "analysis",
			Name:      "files_failed_total",
			Help:      "Input files aborted by a fatal error.",
		}),
	}
}

func (m *metrics) observe(res *engine.Result, seconds float64) {
	m.analyses.WithLabelValues(string(res.Status)).Inc()
	m.duration.Observe(seconds)
	for _, f := range res.Diagnostics.Files {
		m.rows.WithLabelValues("kept").Add(float64(f.RowsKept))
		m.rows.WithLabelValues("skipped").Add(float64(f.RowsSkipped))
		if f.Fatal != "" {
			m.fatal.Inc()
		}
	}
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

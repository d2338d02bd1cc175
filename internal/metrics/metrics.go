// Package metrics exposes editor session counters to Prometheus.
package metrics

import (
	"time"

	"voro-editor/internal/history"
	"voro-editor/internal/kernel"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voro_editor"

// Metrics is the set of collectors for one editor session. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	Transactions   prometheus.Counter
	Undos          prometheus.Counter
	Redos          prometheus.Counter
	ViewRebuilds   *prometheus.CounterVec
	Cells          prometheus.Gauge
	ImportFailures prometheus.Counter
	SanityFailures prometheus.Counter
	EditDuration   *prometheus.HistogramVec
}

// New registers the collectors on reg. A nil reg creates unregistered
// collectors.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transactions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Transactions committed to the undo history",
		}),
		Undos: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "undo_total",
			Help:      "Transactions undone",
		}),
		Redos: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redo_total",
			Help:      "Transactions redone",
		}),
		ViewRebuilds: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffer_view_rebuilds_total",
			Help:      "Buffer views rebuilt after kernel reallocation",
		}, []string{"buffer"}),
		Cells: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cells",
			Help:      "Live cells in the scene",
		}),
		ImportFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_import_failures_total",
			Help:      "Snapshot imports rejected as malformed",
		}),
		SanityFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sanity_failures_total",
			Help:      "Explicit sanity checks that found an invariant violation",
		}),
		EditDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "edit_duration_seconds",
			Help:      "Time spent applying one edit including propagation and view refresh",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.25},
		}, []string{"edit"}),
	}
}

// Committed implements history.Observer.
func (m *Metrics) Committed(history.Transaction) {
	if m != nil {
		m.Transactions.Inc()
	}
}

// Undone implements history.Observer.
func (m *Metrics) Undone(history.Transaction) {
	if m != nil {
		m.Undos.Inc()
	}
}

// Redone implements history.Observer.
func (m *Metrics) Redone(history.Transaction) {
	if m != nil {
		m.Redos.Inc()
	}
}

// ViewRebuilt counts one buffer view rebuild.
func (m *Metrics) ViewRebuilt(c kernel.BufferClass) {
	if m != nil {
		m.ViewRebuilds.WithLabelValues(c.String()).Inc()
	}
}

// SetCells records the live cell count.
func (m *Metrics) SetCells(n int) {
	if m != nil {
		m.Cells.Set(float64(n))
	}
}

// ImportFailed counts a rejected snapshot.
func (m *Metrics) ImportFailed() {
	if m != nil {
		m.ImportFailures.Inc()
	}
}

// SanityFailed counts a failed sanity pass.
func (m *Metrics) SanityFailed() {
	if m != nil {
		m.SanityFailures.Inc()
	}
}

// Time returns a function that observes the elapsed time of an edit.
func (m *Metrics) Time(edit string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.EditDuration.WithLabelValues(edit).Observe(time.Since(start).Seconds())
	}
}

var _ history.Observer = (*Metrics)(nil)

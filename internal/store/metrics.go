package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the store. A nil *Metrics records
// nothing.
type Metrics struct {
	saves         *prometheus.CounterVec
	snapshotBytes prometheus.Gauge
	reloads       prometheus.Counter
	imports       *prometheus.CounterVec
}

// NewMetrics registers the store collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		saves: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rtdb_store_saves_total",
				Help: "Total number of snapshot saves to the durable slot",
			},
			[]string{"result"},
		),

		snapshotBytes: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "rtdb_store_snapshot_bytes",
				Help: "Size of the last saved database image in bytes",
			},
		),

		reloads: f.NewCounter(
			prometheus.CounterOpts{
				Name: "rtdb_store_reloads_total",
				Help: "Total number of reloads triggered by external changes",
			},
		),

		imports: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rtdb_store_imports_total",
				Help: "Total number of database imports",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) saved(size int) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues("ok").Inc()
	m.snapshotBytes.Set(float64(size))
}

func (m *Metrics) saveFailed() {
	if m == nil {
		return
	}
	m.saves.WithLabelValues("error").Inc()
}

func (m *Metrics) reloaded() {
	if m == nil {
		return
	}
	m.reloads.Inc()
}

func (m *Metrics) imported(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.imports.WithLabelValues(result).Inc()
}

package arbor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors a MindMap reports to. A nil
// *Metrics records nothing.
type Metrics struct {
	Reconciles        prometheus.Counter
	Elements          *prometheus.CounterVec
	ReconcileDuration prometheus.Histogram
	VisibleNodes      prometheus.Gauge
	Exports           *prometheus.CounterVec
	Reloads           *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Reconciles: f.NewCounter(prometheus.CounterOpts{
			Name: "arbor_reconciles_total",
			Help: "Total number of reconciliation passes.",
		}),
		Elements: f.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_elements_total",
			Help: "Rendered elements scheduled per reconciliation, labelled by kind and phase.",
		}, []string{"kind", "phase"}),
		ReconcileDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "arbor_reconcile_duration_ms",
			Help:    "Layout, diff and scheduling time of one reconciliation in milliseconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
		}),
		VisibleNodes: f.NewGauge(prometheus.GaugeOpts{
			Name: "arbor_visible_nodes",
			Help: "Nodes in the visible partition after the last reconciliation.",
		}),
		Exports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_exports_total",
			Help: "PDF exports, labelled by status.",
		}, []string{"status"}),
		Reloads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_data_reloads_total",
			Help: "Tree data reloads, labelled by status.",
		}, []string{"status"}),
	}
}

func (m *Metrics) observeReconcile(res Result, visible int) {
	if m == nil {
		return
	}
	m.Reconciles.Inc()
	m.ReconcileDuration.Observe(float64(res.Elapsed.Microseconds()) / 1000)
	m.VisibleNodes.Set(float64(visible))
	for kind, ch := range map[ElementKind]Changes{KindNode: res.Nodes, KindEdge: res.Edges} {
		m.Elements.WithLabelValues(kind.String(), PhaseEnter.String()).Add(float64(len(ch.Enter)))
		m.Elements.WithLabelValues(kind.String(), PhaseUpdate.String()).Add(float64(len(ch.Update)))
		m.Elements.WithLabelValues(kind.String(), PhaseExit.String()).Add(float64(len(ch.Exit)))
	}
}

func (m *Metrics) observeExport(err error) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(status(err)).Inc()
}

func (m *Metrics) observeReload(err error) {
	if m == nil {
		return
	}
	m.Reloads.WithLabelValues(status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

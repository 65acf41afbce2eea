package snapshotmgr

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// promMetrics mirrors the running totals tracked in sync/atomic counters
// (see Manager.totalOps etc.) onto a scrapeable /metrics surface, following
// internal/observability/metrics.go's CounterVec/GaugeVec shape. It is
// registered against its own prometheus.Registry rather than
// prometheus.DefaultRegisterer, so constructing several Managers in the same
// process (every snapshotmgr test does) never hits a duplicate-registration
// panic.
type promMetrics struct {
	registry        *prometheus.Registry
	operationsTotal *prometheus.CounterVec
	snapshotsTotal  prometheus.Counter
	inFlight        prometheus.Gauge
	queued          prometheus.Gauge
}

func newPromMetrics() *promMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &promMetrics{
		registry: reg,
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentcore_snapshotmgr_operations_total",
				Help: "Total snapshot manager operations by result (ok|error).",
			},
			[]string{"result"},
		),
		snapshotsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "agentcore_snapshotmgr_snapshots_created_total",
			Help: "Total snapshots created via the snapshot manager.",
		}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "agentcore_snapshotmgr_inflight_operations",
			Help: "Operations currently holding the concurrency semaphore.",
		}),
		queued: factory.NewGauge(prometheus.GaugeOpts{
			Name: "agentcore_snapshotmgr_queued_operations",
			Help: "Operations waiting to acquire the concurrency semaphore.",
		}),
	}
}

func (p *promMetrics) recordOp(err error) {
	if err != nil {
		p.operationsTotal.WithLabelValues("error").Inc()
		return
	}
	p.operationsTotal.WithLabelValues("ok").Inc()
}

func (p *promMetrics) recordSnapshot() {
	p.snapshotsTotal.Inc()
}

func (p *promMetrics) setInFlight(n int) {
	p.inFlight.Set(float64(n))
}

func (p *promMetrics) setQueued(n int) {
	p.queued.Set(float64(n))
}

package sesskit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the store's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	ops      *prometheus.CounterVec
	lockWait prometheus.Histogram
}

// NewMetrics builds and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sesskit_operations_total",
				Help: "Session store operations by operation and result",
			},
			[]string{"op", "result"},
		),
		lockWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sesskit_lock_wait_seconds",
				Help:    "Time spent waiting for the per-session lock",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
		),
	}
	reg.MustRegister(m.ops, m.lockWait)
	return m
}

func (m *Metrics) observe(op, result string) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, result).Inc()
}

func (m *Metrics) observeLockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(d.Seconds())
}

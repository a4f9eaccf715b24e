package observability

import (
	"fmt"

	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors fed by runner hooks.
type Metrics struct {
	NodeEnters   *prometheus.CounterVec
	NodeLeaves   *prometheus.CounterVec
	Suspensions  *prometheus.CounterVec
	StackDepth   prometheus.Histogram
	FinishedRuns prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		NodeEnters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "threadbare_node_enters_total",
				Help: "Total number of frames pushed, by node",
			},
			[]string{"node"},
		),
		NodeLeaves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "threadbare_node_leaves_total",
				Help: "Total number of frames popped, by node",
			},
			[]string{"node"},
		),
		Suspensions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "threadbare_suspensions_total",
				Help: "Execute results, by state",
			},
			[]string{"state"},
		),
		StackDepth: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "threadbare_stack_depth",
				Help:    "Frame stack depth at node entry",
				Buckets: prometheus.LinearBuckets(1, 1, 8),
			},
		),
		FinishedRuns: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "threadbare_runs_finished_total",
				Help: "Number of times a runner went Off",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.NodeEnters, m.NodeLeaves, m.Suspensions, m.StackDepth, m.FinishedRuns} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(e *domain.NodeEvent) {
			m.NodeEnters.WithLabelValues(e.Node).Inc()
			m.StackDepth.Observe(float64(e.Depth))
		},
		OnNodeLeave: func(e *domain.NodeEvent) {
			m.NodeLeaves.WithLabelValues(e.Node).Inc()
		},
		OnStateChange: func(e *domain.StateEvent) {
			m.Suspensions.WithLabelValues(e.State.String()).Inc()
			if e.State == domain.StateOff {
				m.FinishedRuns.Inc()
			}
		},
	}
}

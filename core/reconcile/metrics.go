package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_runs_total",
		Help: "Reconciliation runs by collection and result.",
	}, []string{"collection", "result"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reconcile_run_duration_seconds",
		Help:    "Wall time of one reconciliation run.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"collection"})

	diffItems = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "reconcile_diff_items",
		Help: "Partition sizes observed by the most recent diff.",
	}, []string{"collection", "partition"})

	taskOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_task_outcomes_total",
		Help: "Settled tasks by collection, operation and status.",
	}, []string{"collection", "operation", "status"})
)

package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	firingsTotal   *prometheus.CounterVec
	tasksCreated   *prometheus.CounterVec
	firingFailures *prometheus.CounterVec
	emptySkips     prometheus.Counter
	notifyFailures prometheus.Counter
	firingDuration prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, *prometheus.CounterVec, prometheus.Counter, prometheus.Counter, prometheus.Histogram) {
	firings := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qc_dispatch_firings_total",
			Help: "Number of successful dispatch firings",
		},
		[]string{"trigger"},
	)
	tasks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qc_dispatch_tasks_created_total",
			Help: "Number of QC tasks created by firings",
		},
		[]string{"trigger"},
	)
	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qc_dispatch_firing_failures_total",
			Help: "Number of failed firing attempts",
		},
		[]string{"reason"},
	)
	skips := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qc_dispatch_empty_skips_total",
			Help: "Number of firings skipped because no personnel or forms were assigned",
		},
	)
	notify := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qc_dispatch_notify_failures_total",
			Help: "Number of task notifications that could not be delivered",
		},
	)
	dur := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qc_dispatch_firing_duration_seconds",
			Help:    "Duration of one firing from lookup to notification",
			Buckets: prometheus.DefBuckets,
		},
	)
	return firings, tasks, failures, skips, notify, dur
}

func init() {
	firingsTotal, tasksCreated, firingFailures, emptySkips, notifyFailures, firingDuration = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers engine metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(firingsTotal, tasksCreated, firingFailures, emptySkips, notifyFailures, firingDuration)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	firingsTotal, tasksCreated, firingFailures, emptySkips, notifyFailures, firingDuration = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

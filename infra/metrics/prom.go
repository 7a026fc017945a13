// Package metrics provides sink implementations exporting firing results to
// Prometheus and InfluxDB.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/tguellec/qcdispatch/core/metrics"
)

// PromSink records firing events in Prometheus metrics.
type PromSink struct {
	firings       *prometheus.CounterVec
	fanout        prometheus.Histogram
	notifications *prometheus.CounterVec
}

// NewPromSink registers firing metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusAddr.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	firings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qc_firing_events_total",
		Help: "Total number of dispatch firings recorded by the sink",
	}, []string{"dispatch_id", "manual"})
	fanout := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "qc_firing_fanout_tasks",
		Help:    "Number of tasks created per firing",
		Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128},
	})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qc_notifications_total",
		Help: "Task notifications attempted, by delivery outcome",
	}, []string{"delivered"})

	if err := reg.Register(firings); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			firings = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(fanout); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			fanout = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(notifications); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			notifications = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{firings: firings, fanout: fanout, notifications: notifications}, nil
}

// RecordFiring increments the counter and observes the fan-out size.
func (s *PromSink) RecordFiring(res coremetrics.FiringResult) error {
	s.firings.WithLabelValues(res.DispatchID, strconv.FormatBool(res.Manual)).Inc()
	s.fanout.Observe(float64(res.TaskCount))
	return nil
}

// RecordNotification counts one notification attempt.
func (s *PromSink) RecordNotification(ev coremetrics.NotificationEvent) error {
	s.notifications.WithLabelValues(strconv.FormatBool(ev.Delivered)).Inc()
	return nil
}

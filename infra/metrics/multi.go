package metrics

import coremetrics "github.com/tguellec/qcdispatch/core/metrics"

// MultiSink fans firing results out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordFiring forwards the result to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordFiring(res coremetrics.FiringResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordFiring(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordNotification forwards notification events to sinks that support them.
func (m *MultiSink) RecordNotification(ev coremetrics.NotificationEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.NotificationRecorder); ok {
			if err := rec.RecordNotification(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

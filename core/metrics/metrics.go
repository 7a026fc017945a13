package metrics

import "time"

// FiringResult summarizes one successful firing of a dispatch.
type FiringResult struct {
	DispatchID   string
	DispatchTime time.Time
	TaskCount    int
	Personnel    int
	Forms        int
	Manual       bool
	Time         time.Time
}

// MetricsSink records firing results for observability purposes.
type MetricsSink interface {
	RecordFiring(res FiringResult) error
}

// NotificationEvent captures one notification attempt for a created task.
type NotificationEvent struct {
	DispatchID  string
	PersonnelID string
	Locator     string
	Delivered   bool
	Time        time.Time
}

// NotificationRecorder is implemented by sinks able to record notification
// attempts.
type NotificationRecorder interface {
	RecordNotification(ev NotificationEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordFiring(FiringResult) error            { return nil }
func (NopSink) RecordNotification(NotificationEvent) error { return nil }

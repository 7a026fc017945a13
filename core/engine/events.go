package engine

import (
	"time"

	"github.com/tguellec/qcdispatch/core/model"
)

// Event is the closed set of engine events published on the bus.
type Event interface {
	isEvent()
}

// FiringEvent is published after a successful firing, once tasks are
// persisted and the counter is advanced.
type FiringEvent struct {
	DispatchID   string
	DispatchTime time.Time
	Manual       bool
	Tasks        []model.Task
	Time         time.Time
}

func (FiringEvent) isEvent() {}

// SkipEvent is published when an execution request turns into a deliberate
// no-op because the dispatch has no personnel or no forms assigned.
type SkipEvent struct {
	DispatchID string
	Reason     string
	Time       time.Time
}

func (SkipEvent) isEvent() {}

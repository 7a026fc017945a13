package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tguellec/qcdispatch/core/logger"
	"github.com/tguellec/qcdispatch/core/metrics"
	"github.com/tguellec/qcdispatch/core/model"
	"github.com/tguellec/qcdispatch/core/notify"
	"github.com/tguellec/qcdispatch/core/schedule"
	"github.com/tguellec/qcdispatch/core/store"
	"github.com/tguellec/qcdispatch/internal/eventbus"
)

// ConfigError reports a malformed schedule on a dispatch that was already
// committed to fire. The evaluator fails closed on the same conditions; the
// executor fails loudly because it was asked to execute, not merely polled.
type ConfigError struct {
	DispatchID string
	Reason     string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("dispatch %s: %s", e.DispatchID, e.Reason)
}

// Engine evaluates and executes QC test dispatches. One Engine instance owns
// the scan-evaluate-execute loop; firings for the same dispatch id are
// serialized whether they come from the scanner or a manual trigger.
type Engine struct {
	descriptors store.DescriptorStore
	tasks       store.TaskStore
	notifier    notify.Notifier
	sink        metrics.MetricsSink
	bus         *eventbus.Bus[Event]
	log         logger.Logger
	tick        time.Duration
	now         func() time.Time
	locks       *keyedMutex
}

// NewEngine creates a new engine. tick defines the scanner period; if it is
// zero or negative a default of one minute is used. notifier, sink and bus
// may be nil.
func NewEngine(descriptors store.DescriptorStore, tasks store.TaskStore, notifier notify.Notifier, tick time.Duration, sink metrics.MetricsSink, bus *eventbus.Bus[Event], log logger.Logger) (*Engine, error) {
	if descriptors == nil || tasks == nil || log == nil {
		return nil, fmt.Errorf("engine: nil parameter provided to NewEngine")
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if tick <= 0 {
		tick = time.Minute
	}
	return &Engine{
		descriptors: descriptors,
		tasks:       tasks,
		notifier:    notifier,
		sink:        sink,
		bus:         bus,
		log:         log,
		tick:        tick,
		now:         time.Now,
		locks:       newKeyedMutex(),
	}, nil
}

// Run drives the periodic scanner until the context is canceled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Tick runs one scan cycle: every active dispatch is evaluated and eligible
// ones are executed. A failing dispatch is logged and does not block the
// rest of the batch.
func (e *Engine) Tick(ctx context.Context) {
	now := e.now()
	dispatches, err := e.descriptors.FindActive(ctx)
	if err != nil {
		e.log.Errorf("load active dispatches: %v", err)
		return
	}
	e.log.Debugf("scanning %d active dispatches", len(dispatches))
	for _, d := range dispatches {
		if !schedule.ShouldFire(d, now) {
			continue
		}
		if err := e.execute(ctx, d.ID, false); err != nil {
			e.log.Errorf("dispatch %s: %v", d.ID, err)
		}
	}
}

// Execute fires the identified dispatch once. An unknown id is an error;
// a dispatch without personnel or forms is a valid no-op.
func (e *Engine) Execute(ctx context.Context, id string) error {
	return e.execute(ctx, id, false)
}

// ManualDispatch fires a single dispatch outside the scanner, bypassing
// eligibility evaluation. It returns false without side effects when the id
// is unknown; execution failures on a known id are returned as errors.
func (e *Engine) ManualDispatch(ctx context.Context, id string) (bool, error) {
	if _, err := e.descriptors.Find(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("find dispatch %s: %w", id, err)
	}
	return true, e.execute(ctx, id, true)
}

func (e *Engine) execute(ctx context.Context, id string, manual bool) error {
	unlock := e.locks.lock(id)
	defer unlock()
	start := e.now()

	d, err := e.descriptors.Find(ctx, id)
	if err != nil {
		firingFailures.WithLabelValues("lookup").Inc()
		return fmt.Errorf("find dispatch %s: %w", id, err)
	}
	if len(d.PersonnelIDs) == 0 || len(d.FormIDs) == 0 {
		e.log.Infof("dispatch %s has no personnel or forms assigned, skipping", d.ID)
		emptySkips.Inc()
		e.publish(SkipEvent{DispatchID: d.ID, Reason: "no assignments", Time: start})
		return nil
	}

	when, err := e.dispatchTime(d)
	if err != nil {
		firingFailures.WithLabelValues("config").Inc()
		return err
	}

	batch := buildTasks(d, when)
	if err := e.tasks.SaveBatch(ctx, batch); err != nil {
		firingFailures.WithLabelValues("persist").Inc()
		return fmt.Errorf("save tasks for dispatch %s: %w", d.ID, err)
	}

	// The counter advance must stay strictly after the successful batch
	// persist: it is what moves the interval slot forward.
	if _, ok := d.Schedule.(model.Interval); ok {
		d.ExecutedCount++
		if err := e.descriptors.Save(ctx, d); err != nil {
			firingFailures.WithLabelValues("counter").Inc()
			return fmt.Errorf("advance counter for dispatch %s: %w", d.ID, err)
		}
	}

	e.notifyTasks(ctx, batch)

	trigger := "scheduled"
	if manual {
		trigger = "manual"
	}
	firingsTotal.WithLabelValues(trigger).Inc()
	tasksCreated.WithLabelValues(trigger).Add(float64(len(batch)))
	firingDuration.Observe(e.now().Sub(start).Seconds())
	if err := e.sink.RecordFiring(metrics.FiringResult{
		DispatchID:   d.ID,
		DispatchTime: when,
		TaskCount:    len(batch),
		Personnel:    len(d.PersonnelIDs),
		Forms:        len(d.FormIDs),
		Manual:       manual,
		Time:         start,
	}); err != nil {
		e.log.Errorf("metrics error: %v", err)
	}
	e.publish(FiringEvent{DispatchID: d.ID, DispatchTime: when, Manual: manual, Tasks: batch, Time: start})
	e.log.Infof("dispatch %s fired %d tasks at %s", d.ID, len(batch), when.Format(time.RFC3339))
	return nil
}

// dispatchTime computes the single timestamp stamped on every task of this
// firing.
func (e *Engine) dispatchTime(d model.Dispatch) (time.Time, error) {
	switch s := d.Schedule.(type) {
	case model.Interval:
		if s.Start.IsZero() || s.IntervalMinutes <= 0 {
			return time.Time{}, &ConfigError{DispatchID: d.ID, Reason: "interval schedule missing start time or interval"}
		}
		// The slot being consummated by this call, not the stored one.
		return schedule.NextFireTime(s, d.ExecutedCount+1), nil
	case model.SpecificDays:
		ct, err := model.ParseClockTime(s.TimeOfDay)
		if err != nil {
			return time.Time{}, &ConfigError{DispatchID: d.ID, Reason: err.Error()}
		}
		now := e.now()
		return time.Date(now.Year(), now.Month(), now.Day(), ct.Hour, ct.Minute, 0, 0, now.Location()), nil
	default:
		return time.Time{}, &ConfigError{DispatchID: d.ID, Reason: "no schedule configured"}
	}
}

// buildTasks materializes the full form x personnel cross product.
func buildTasks(d model.Dispatch, when time.Time) []model.Task {
	batch := make([]model.Task, 0, len(d.FormIDs)*len(d.PersonnelIDs))
	for _, formID := range d.FormIDs {
		for _, personnelID := range d.PersonnelIDs {
			batch = append(batch, model.Task{
				ID:           uuid.NewString(),
				DispatchID:   d.ID,
				PersonnelID:  personnelID,
				FormID:       formID,
				DispatchTime: when,
				Status:       model.TaskStatusPending,
			})
		}
	}
	return batch
}

// notifyTasks emits one best-effort notification per created task.
func (e *Engine) notifyTasks(ctx context.Context, batch []model.Task) {
	for _, t := range batch {
		locator := TaskLocator(t.FormID, t.PersonnelID)
		err := e.notifier.Notify(ctx, t.PersonnelID, locator)
		if err != nil {
			notifyFailures.Inc()
			e.log.Warnf("notify %s for task %s: %v", t.PersonnelID, t.ID, err)
		}
		if nr, ok := e.sink.(metrics.NotificationRecorder); ok {
			if rerr := nr.RecordNotification(metrics.NotificationEvent{
				DispatchID:  t.DispatchID,
				PersonnelID: t.PersonnelID,
				Locator:     locator,
				Delivered:   err == nil,
				Time:        e.now(),
			}); rerr != nil {
				e.log.Errorf("notification metrics error: %v", rerr)
			}
		}
	}
}

// TaskLocator builds the resource locator embedded in a task notification.
func TaskLocator(formID, personnelID string) string {
	return fmt.Sprintf("/forms/%s/fill?personnel=%s", formID, personnelID)
}

func (e *Engine) publish(ev Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/tguellec/qcdispatch/core/model"
	"github.com/tguellec/qcdispatch/core/store"
	"github.com/tguellec/qcdispatch/infra/logger"
	"github.com/tguellec/qcdispatch/internal/eventbus"
)

func TestTickFiresOnlyEligible(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.Put(intervalDispatch("due", 2, 0))     // slot 2 due at t0+30min
	mem.Put(intervalDispatch("not-due", 5, 0)) // slot 5 due at t0+75min
	inactive := intervalDispatch("inactive", 0, 0)
	inactive.Active = false
	mem.Put(inactive)

	eng := newTestEngine(t, mem, &fakeNotifier{}, t0.Add(31*time.Minute))
	eng.Tick(context.Background())

	for _, task := range mem.Tasks() {
		if task.DispatchID != "due" {
			t.Fatalf("unexpected firing for %s", task.DispatchID)
		}
	}
	if len(mem.Tasks()) != 4 {
		t.Fatalf("expected 4 tasks got %d", len(mem.Tasks()))
	}
	d, _ := mem.Find(context.Background(), "due")
	if d.ExecutedCount != 3 {
		t.Fatalf("counter not advanced: %d", d.ExecutedCount)
	}
}

func TestTickRespectsRepeatCap(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.Put(intervalDispatch("spent", 3, 3))
	eng := newTestEngine(t, mem, &fakeNotifier{}, t0.Add(24*time.Hour))
	eng.Tick(context.Background())
	if len(mem.Tasks()) != 0 {
		t.Fatalf("exhausted dispatch fired")
	}
	d, _ := mem.Find(context.Background(), "spent")
	if d.ExecutedCount != 3 {
		t.Fatalf("counter mutated: %d", d.ExecutedCount)
	}
}

func TestTickIsolatesFailures(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.Put(intervalDispatch("broken", 0, 0))
	mem.Put(intervalDispatch("healthy", 0, 0))
	tasks := &failingTaskStore{inner: mem, failFor: map[string]bool{"broken": true}}
	eng, err := NewEngine(mem, tasks, nil, time.Minute, nil, nil, logger.NopLogger{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	eng.now = func() time.Time { return t0.Add(16 * time.Minute) }

	eng.Tick(context.Background())

	if len(mem.Tasks()) != 4 {
		t.Fatalf("healthy dispatch blocked by broken one: %d tasks", len(mem.Tasks()))
	}
	for _, task := range mem.Tasks() {
		if task.DispatchID != "healthy" {
			t.Fatalf("unexpected task for %s", task.DispatchID)
		}
	}
}

func TestTickSameMinuteSpecificDays(t *testing.T) {
	// Exact-match semantics: every tick inside the matching minute re-fires.
	mem := store.NewMemoryStore()
	mem.Put(model.Dispatch{
		ID:           "sd",
		Schedule:     model.SpecificDays{Days: []time.Weekday{time.Monday}, TimeOfDay: "09:00"},
		Active:       true,
		PersonnelIDs: []string{"p1"},
		FormIDs:      []string{"f1"},
	})
	eng := newTestEngine(t, mem, &fakeNotifier{}, t0.Add(10*time.Second))
	eng.Tick(context.Background())
	eng.Tick(context.Background())
	if len(mem.Tasks()) != 2 {
		t.Fatalf("expected 2 firings within the matching minute, got %d tasks", len(mem.Tasks()))
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	mem := store.NewMemoryStore()
	eng, err := NewEngine(mem, mem, nil, 5*time.Millisecond, nil, nil, logger.NopLogger{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = eng.Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop on cancel")
	}
}

func TestFiringEventPublished(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.Put(intervalDispatch("d1", 0, 0))
	bus := eventbus.New[Event](8)
	eng, err := NewEngine(mem, mem, nil, time.Minute, nil, bus, logger.NopLogger{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	eng.now = func() time.Time { return t0.Add(16 * time.Minute) }
	sub := bus.Subscribe()

	if err := eng.Execute(context.Background(), "d1"); err != nil {
		t.Fatalf("execute: %v", err)
	}

	select {
	case ev := <-sub:
		fe, ok := ev.(FiringEvent)
		if !ok {
			t.Fatalf("expected FiringEvent got %T", ev)
		}
		if fe.DispatchID != "d1" || len(fe.Tasks) != 4 {
			t.Fatalf("bad event %+v", fe)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event published")
	}
}

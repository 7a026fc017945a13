package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/tguellec/qcdispatch/config"
	"github.com/tguellec/qcdispatch/core/audit"
	"github.com/tguellec/qcdispatch/core/engine"
	"github.com/tguellec/qcdispatch/core/model"
)

func testConfig(t *testing.T) *config.Config {
	cfg := &config.Config{}
	cfg.Scheduler.TickSeconds = 60
	cfg.Store.Backend = "memory"
	cfg.Notifier.Mode = "log"
	cfg.Audit.Enabled = true
	cfg.Audit.Path = filepath.Join(t.TempDir(), "firings.log")
	return cfg
}

func TestNewServiceAssembles(t *testing.T) {
	svc, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer func() { _ = svc.Close() }()
	if svc.Engine == nil || svc.Audit == nil {
		t.Fatalf("incomplete service %+v", svc)
	}
}

func TestFiringBeforeRunIsRecorded(t *testing.T) {
	svc, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer func() { _ = svc.Close() }()

	// A firing published between construction and Run must not be lost.
	when := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	svc.bus.Publish(engine.FiringEvent{
		DispatchID:   "d1",
		DispatchTime: when,
		Manual:       true,
		Tasks:        []model.Task{{ID: "t1", DispatchID: "d1", PersonnelID: "p1", FormID: "f1"}},
		Time:         when,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		recs, qerr := svc.Audit.Query(context.Background(), audit.Query{})
		if qerr == nil && len(recs) == 1 {
			if recs[0].DispatchID != "d1" || recs[0].TaskCount != 1 || !recs[0].Manual {
				t.Fatalf("bad record %+v", recs[0])
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("firing published before Run was not recorded")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

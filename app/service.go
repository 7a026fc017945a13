// Package app assembles the dispatch engine and its adapters from the
// configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apidispatch "github.com/tguellec/qcdispatch/api/dispatch"
	"github.com/tguellec/qcdispatch/config"
	"github.com/tguellec/qcdispatch/core/audit"
	"github.com/tguellec/qcdispatch/core/engine"
	coremetrics "github.com/tguellec/qcdispatch/core/metrics"
	"github.com/tguellec/qcdispatch/core/notify"
	"github.com/tguellec/qcdispatch/core/store"
	"github.com/tguellec/qcdispatch/infra/logger"
	"github.com/tguellec/qcdispatch/infra/metrics"
	infranotify "github.com/tguellec/qcdispatch/infra/notify"
	infrastore "github.com/tguellec/qcdispatch/infra/store"
	"github.com/tguellec/qcdispatch/internal/eventbus"
)

// Service orchestrates the dispatch engine, the notifier transport and the
// admin HTTP surface.
type Service struct {
	Engine *engine.Engine
	Audit  audit.Store

	cfg      *config.Config
	bus      *eventbus.Bus[engine.Event]
	auditSub <-chan engine.Event
	log      logger.Logger
	closers  []func() error
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	svc := &Service{cfg: cfg, log: logg}

	descriptors, tasks, err := svc.buildStores(cfg.Store)
	if err != nil {
		return nil, err
	}
	notifier, err := svc.buildNotifier(cfg.Notifier)
	if err != nil {
		return nil, err
	}
	sink, err := svc.buildSink(cfg.Metrics)
	if err != nil {
		return nil, err
	}

	if cfg.Audit.Enabled {
		auditStore, err := audit.NewJSONLStore(cfg.Audit.Path, cfg.Audit.MaxSizeMB, cfg.Audit.MaxBackups, cfg.Audit.MaxAgeDays)
		if err != nil {
			return nil, fmt.Errorf("audit store: %w", err)
		}
		svc.Audit = auditStore
		svc.closers = append(svc.closers, auditStore.Close)
	}

	svc.bus = eventbus.New[engine.Event](16)
	// The audit consumer subscribes before the engine exists so a manual
	// trigger right after startup cannot fire into an unobserved bus.
	if svc.Audit != nil {
		svc.auditSub = svc.bus.Subscribe()
	}
	tick := time.Duration(cfg.Scheduler.TickSeconds) * time.Second
	eng, err := engine.NewEngine(descriptors, tasks, notifier, tick, sink, svc.bus, logger.New("engine"))
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	svc.Engine = eng
	return svc, nil
}

func (s *Service) buildStores(cfg config.StoreConfig) (store.DescriptorStore, store.TaskStore, error) {
	switch cfg.Backend {
	case "sqlite":
		st, err := infrastore.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite store: %w", err)
		}
		s.closers = append(s.closers, st.Close)
		return st, st, nil
	default:
		st := store.NewMemoryStore()
		return st, st, nil
	}
}

func (s *Service) buildNotifier(cfg infranotify.Config) (notify.Notifier, error) {
	switch cfg.Mode {
	case "mqtt":
		n, err := infranotify.NewMQTTNotifier(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt notifier: %w", err)
		}
		s.closers = append(s.closers, func() error { n.Close(); return nil })
		return n, nil
	default:
		return infranotify.NewLogNotifier(), nil
	}
}

func (s *Service) buildSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	var sinks []coremetrics.MetricsSink
	if cfg.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg)
		if is, ok := sink.(*metrics.InfluxSink); ok {
			s.closers = append(s.closers, func() error { is.Close(); return nil })
		}
		sinks = append(sinks, sink)
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return metrics.NewMultiSink(sinks...), nil
	}
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go func() {
		if err := s.Engine.Run(ctx); err != nil {
			s.log.Errorf("engine: %v", err)
		}
	}()
	if s.auditSub != nil {
		go s.recordFirings(ctx)
	}
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.cfg.API.Enabled {
		go func() {
			if err := s.serveAPI(ctx); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	<-ctx.Done()
	return nil
}

// recordFirings turns engine firing events into audit records. The
// subscription itself is taken in New; events published between New and Run
// wait in the subscription buffer.
func (s *Service) recordFirings(ctx context.Context) {
	sub := s.auditSub
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			fe, ok := ev.(engine.FiringEvent)
			if !ok {
				continue
			}
			rec := audit.Record{
				Timestamp:    fe.Time,
				DispatchID:   fe.DispatchID,
				DispatchTime: fe.DispatchTime,
				Manual:       fe.Manual,
				TaskCount:    len(fe.Tasks),
			}
			for _, t := range fe.Tasks {
				rec.Tasks = append(rec.Tasks, audit.TaskRef{TaskID: t.ID, PersonnelID: t.PersonnelID, FormID: t.FormID})
			}
			if err := s.Audit.Append(ctx, rec); err != nil {
				s.log.Errorf("audit append: %v", err)
			}
		}
	}
}

func (s *Service) serveAPI(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/api/dispatch/trigger", apidispatch.NewTriggerHandler(s.Engine, s.cfg.API.Token))
	if s.Audit != nil {
		mux.Handle("/api/dispatch/firings", apidispatch.NewFiringsHandler(s.Audit, s.cfg.API.Token))
	}
	srv := &http.Server{Addr: s.cfg.API.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	s.log.Infof("api listening on %s", s.cfg.API.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.bus != nil {
		s.bus.Close()
	}
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

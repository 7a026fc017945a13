package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `scheduler:
  tick_seconds: 30
store:
  backend: "sqlite"
  path: "/tmp/qc.db"
notifier:
  mode: "mqtt"
  mqtt:
    broker: "tcp://localhost:1883"
    client_id: "qc"
    topic_prefix: "qc/tasks"
metrics:
  prometheus_enabled: true
  prometheus_addr: ":9100"
audit:
  enabled: true
  path: "/tmp/firings.log"
  max_size_mb: 10
api:
  enabled: true
  addr: ":8081"
  token: "secret"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"tick_seconds", cfg.Scheduler.TickSeconds, 30},
		{"store.backend", cfg.Store.Backend, "sqlite"},
		{"store.path", cfg.Store.Path, "/tmp/qc.db"},
		{"notifier.mode", cfg.Notifier.Mode, "mqtt"},
		{"notifier.broker", cfg.Notifier.MQTT.Broker, "tcp://localhost:1883"},
		{"notifier.topic_prefix", cfg.Notifier.MQTT.TopicPrefix, "qc/tasks"},
		{"prometheus_enabled", cfg.Metrics.PrometheusEnabled, true},
		{"prometheus_addr", cfg.Metrics.PrometheusAddr, ":9100"},
		{"audit.path", cfg.Audit.Path, "/tmp/firings.log"},
		{"audit.max_size_mb", cfg.Audit.MaxSizeMB, 10},
		{"api.addr", cfg.API.Addr, ":8081"},
		{"api.token", cfg.API.Token, "secret"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Scheduler.TickSeconds != 60 {
		t.Fatalf("tick default: %d", cfg.Scheduler.TickSeconds)
	}
	if cfg.Store.Backend != "memory" {
		t.Fatalf("store default: %s", cfg.Store.Backend)
	}
	if cfg.Notifier.Mode != "log" {
		t.Fatalf("notifier default: %s", cfg.Notifier.Mode)
	}
	if cfg.API.Addr != ":8080" || cfg.Metrics.PrometheusAddr != ":9090" {
		t.Fatalf("addr defaults: %s %s", cfg.API.Addr, cfg.Metrics.PrometheusAddr)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("store:\n  backend: \"oracle\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("scheduler:\n  tick_seconds: 60\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("QC_SCHEDULER__TICK_SECONDS", "15")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Scheduler.TickSeconds != 15 {
		t.Fatalf("env override not applied: %d", cfg.Scheduler.TickSeconds)
	}
}

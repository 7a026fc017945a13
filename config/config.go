// Package config loads and validates the service configuration.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tguellec/qcdispatch/core/metrics"
	"github.com/tguellec/qcdispatch/infra/notify"
)

type Config struct {
	Scheduler SchedulerConfig `json:"scheduler"`
	Store     StoreConfig     `json:"store"`
	Notifier  notify.Config   `json:"notifier"`
	Metrics   metrics.Config  `json:"metrics"`
	Audit     AuditConfig     `json:"audit"`
	API       APIConfig       `json:"api"`
}

// SchedulerConfig tunes the periodic scanner.
type SchedulerConfig struct {
	// TickSeconds is the scan period. The engine assumes a one-minute tick
	// granularity for specific-days schedules.
	TickSeconds int `json:"tick_seconds"`
}

// SetDefaults applies sane defaults.
func (c *SchedulerConfig) SetDefaults() {
	if c.TickSeconds <= 0 {
		c.TickSeconds = 60
	}
}

// StoreConfig selects the dispatch and task store backend.
type StoreConfig struct {
	// Backend selects the store type: "memory" or "sqlite".
	Backend string `json:"backend"`
	// Path is the database file location for the sqlite backend.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Backend == "sqlite" && c.Path == "" {
		c.Path = "qcdispatch.db"
	}
}

// Validate checks mandatory fields.
func (c StoreConfig) Validate() error {
	if c.Backend != "memory" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown store backend %s", c.Backend)
	}
	return nil
}

// AuditConfig defines settings for firing log storage and rotation.
type AuditConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *AuditConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "firings.log"
	}
}

// APIConfig configures the admin HTTP surface.
type APIConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
	// Token guards the endpoints when non-empty ("Bearer <token>").
	Token string `json:"token"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("QC_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "qc_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Scheduler.SetDefaults()
	cfg.Store.SetDefaults()
	cfg.Notifier.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Audit.SetDefaults()
	cfg.API.SetDefaults()
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Notifier.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

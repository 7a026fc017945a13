// Package logger provides the zerolog-backed implementation of the core
// logging interface. Every logger is tagged with the name of the component
// that owns it so log lines can be attributed across the service.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	corelogger "github.com/tguellec/qcdispatch/core/logger"
)

// Logger mirrors the core logging interface.
type Logger = corelogger.Logger

// Options control output verbosity and format.
type Options struct {
	// Level is a zerolog level name ("debug", "info", "warn", ...).
	// Empty or unrecognized values fall back to info.
	Level string
	// Console switches to the human-readable console writer for local
	// development. The default is one JSON object per line.
	Console bool
}

// OptionsFromEnv reads QC_LOG_LEVEL and QC_LOG_FORMAT. Setting
// QC_LOG_FORMAT=console selects the console writer.
func OptionsFromEnv() Options {
	return Options{
		Level:   os.Getenv("QC_LOG_LEVEL"),
		Console: strings.EqualFold(os.Getenv("QC_LOG_FORMAT"), "console"),
	}
}

// New returns a component-tagged Logger configured from the environment.
func New(component string) Logger {
	return NewWithOptions(component, OptionsFromEnv())
}

// NewWithOptions returns a component-tagged Logger writing to stdout.
func NewWithOptions(component string, opts Options) Logger {
	return newLogger(component, opts, os.Stdout)
}

func newLogger(component string, opts Options, out io.Writer) Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	z := zerolog.New(out).Level(level).With().
		Timestamp().
		Str("component", component).
		Logger()
	return &zlog{z: z}
}

// NopLogger discards everything. It is the default collaborator in tests.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

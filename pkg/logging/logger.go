// Package logging builds the hclog loggers used by the unpac commands.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Environment variables read by the logger.
const (
	EnvLogLevel = "UNPAC_LOG_LEVEL"
	EnvJSONLog  = "UNPAC_JSON_LOG"
	EnvLogPath  = "UNPAC_LOG_PATH"
)

// DefaultLevel is used when neither a flag nor the environment sets one.
const DefaultLevel = "warn"

// Options describes a resolved logger configuration.
type Options struct {
	Level  string
	Source string // where Level came from: flag, env, or default
	JSON   bool
}

// Resolve picks the log level from the CLI value, then UNPAC_LOG_LEVEL, then
// the default. A "json:<level>" value (or UNPAC_JSON_LOG=1) selects JSON
// output.
func Resolve(cliLevel string) Options {
	opts := Options{Level: DefaultLevel, Source: "default"}

	if cliLevel != "" {
		opts.Level, opts.Source = cliLevel, "flag --log-level"
	} else if env := os.Getenv(EnvLogLevel); env != "" {
		opts.Level, opts.Source = env, EnvLogLevel
	}

	if strings.HasPrefix(opts.Level, "json") {
		opts.JSON = true
		if _, level, ok := strings.Cut(opts.Level, ":"); ok && level != "" {
			opts.Level = level
		} else {
			opts.Level = "info"
		}
	}
	if os.Getenv(EnvJSONLog) == "1" {
		opts.JSON = true
	}

	return opts
}

// NewLogger creates a logger with UTC timestamps. Human-readable output gets
// a line prefix; JSON output is left untouched.
func NewLogger(name string, opts Options, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}
	if !opts.JSON {
		output = NewPrefixWriter("📦 ", output)
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(opts.Level),
		JSONFormat: opts.JSON,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z",
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// Output returns stderr, or the file named by UNPAC_LOG_PATH opened for
// appending. The returned closer is a no-op for stderr.
func Output() (io.Writer, func() error) {
	if path := os.Getenv(EnvLogPath); path != "" {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			return f, f.Close
		}
	}
	return os.Stderr, func() error { return nil }
}

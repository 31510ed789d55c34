// Package logger builds the service's structured slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogFormat represents the output format for logs
type LogFormat string

const (
	FormatJSON LogFormat = "json"
	FormatText LogFormat = "text"
)

// Options controls logger construction
type Options struct {
	Level   slog.Level
	Format  LogFormat
	Output  io.Writer
	Service string
}

// OptionsFromEnv reads LOG_LEVEL (debug, info, warn, error; default info)
// and LOG_FORMAT (json, text; default json).
func OptionsFromEnv(service string) Options {
	return Options{
		Level:   ParseLevel(os.Getenv("LOG_LEVEL")),
		Format:  ParseFormat(os.Getenv("LOG_FORMAT")),
		Output:  os.Stdout,
		Service: service,
	}
}

// New creates a logger for service configured from the environment
func New(service string) *slog.Logger {
	return NewWithOptions(OptionsFromEnv(service))
}

// NewWithOptions creates a logger from explicit options
func NewWithOptions(o Options) *slog.Logger {
	out := o.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     o.Level,
		AddSource: o.Level <= slog.LevelDebug,
	}

	var handler slog.Handler
	if o.Format == FormatText {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(handler)
	if o.Service != "" {
		logger = logger.With("service", o.Service)
	}
	return logger
}

// ParseLevel maps a level name to a slog.Level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseFormat maps a format name to a LogFormat, defaulting to JSON
func ParseFormat(s string) LogFormat {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatText)) {
		return FormatText
	}
	return FormatJSON
}

// SetDefault sets the given logger as the default slog logger
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}

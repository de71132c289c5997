// Package logging builds the process-wide structured logger and provides
// API key redaction for log fields.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"keybridge-hq/keybridge/pkg/config"
)

// Logger wraps the slog logger with a runtime-adjustable level and an
// optional key redactor.
type Logger struct {
	slog     *slog.Logger
	level    *slog.LevelVar
	redactor *Redactor
}

// New creates a logger from the logging configuration. The returned
// logger's level can be changed at runtime via SetLevel, which is how
// configuration hot-reload adjusts verbosity without a restart.
func New(cfg config.LoggingConfig, w io.Writer) (*Logger, error) {
	if w == nil {
		w = os.Stdout
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(level)

	opts := &slog.HandlerOptions{Level: levelVar}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	var redactor *Redactor
	if cfg.RedactKeys {
		redactor = NewRedactor()
		handler = newRedactingHandler(handler, redactor)
	}

	return &Logger{
		slog:     slog.New(handler),
		level:    levelVar,
		redactor: redactor,
	}, nil
}

// Slog returns the underlying slog logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// SetDefault installs this logger as the process default.
func (l *Logger) SetDefault() {
	slog.SetDefault(l.slog)
}

// SetLevel changes the minimum log level at runtime.
func (l *Logger) SetLevel(level string) error {
	parsed, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l.level.Set(parsed)
	return nil
}

// ParseLevel parses a log level name.
func ParseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", s)
	}
}

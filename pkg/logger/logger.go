// Package logger provides the structured logger used across MusicalConductor.
// It wraps logrus the way the rest of the module's ambient stack expects:
// a thin type with field-builder helpers, so components never import
// logrus directly.
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is a thin wrapper around logrus.Logger.
type Logger struct {
	*logrus.Logger
}

// Config controls level and format for a Logger.
type Config struct {
	Level  string // debug|info|warn|error
	Format string // text|json
}

// New creates a logger from the given configuration.
func New(cfg Config) *Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	l.SetOutput(os.Stdout)
	return &Logger{Logger: l}
}

// NewDefault returns an info-level, text-format logger writing to stdout.
// The component name is not attached to its entries: for a non-empty
// component the returned Logger wraps the same underlying logrus logger,
// without a "component" field.
func NewDefault(component string) *Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetOutput(os.Stdout)
	wrapped := &Logger{Logger: l}
	if component == "" {
		return wrapped
	}
	return &Logger{Logger: l.WithField("component", component).Logger}
}

// WithField returns a log entry carrying a single field.
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithFields returns a log entry carrying multiple fields.
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.Logger.WithFields(fields)
}

// Noop returns a logger that discards everything, for tests that don't
// care about log output.
func Noop() *Logger {
	l := logrus.New()
	l.SetOutput(noopWriter{})
	return &Logger{Logger: l}
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }

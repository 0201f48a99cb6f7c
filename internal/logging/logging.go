// Package logging defines the logger contract used across the application
// and provides the default slog-based implementation.
package logging

import (
	"log/slog"
	"os"

	"github.com/maxbolgarin/lang"
)

// Logger is an interface for logging messages.
type Logger interface {
	Debug(string, ...any)
	Info(string, ...any)
	Warn(string, ...any)
	Error(string, ...any)
}

// New returns a JSON logger writing to stderr.
// Debug enables the debug level, otherwise info and above are logged.
func New(debug bool) Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: lang.If(debug, slog.LevelDebug, slog.LevelInfo),
	}))
}

// Noop returns a logger that discards everything.
func Noop() Logger {
	return noopLogger{}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

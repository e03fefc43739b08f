// Package logger provides structured logging for the chat server, backed by
// zerolog. Components depend on the Logger interface so tests can run with
// the no-op implementation.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Field represents a key-value pair for structured log output.
type Field struct {
	Key   string
	Value any
}

// Logger is the logging interface used throughout the server. Implementations
// must be safe for concurrent use; With derives a child logger carrying
// additional fields without modifying the receiver.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type zerologLogger struct {
	l zerolog.Logger
}

// New builds a Logger writing JSON to w, tagged with a service name and
// filtered by level.
//
// Parameters:
//   - w: Destination writer (e.g. os.Stderr or a test buffer)
//   - service: Name of the service, added as a field to every entry
//   - level: Minimum level to log
//
// Returns:
//   - A zerolog-backed Logger
func New(w io.Writer, service string, level zerolog.Level) Logger {
	return &zerologLogger{
		l: zerolog.New(w).With().Str("service", service).Timestamp().Logger().Level(level),
	}
}

// NewConsole builds a Logger writing human-readable output to stderr,
// intended for the daemon's foreground mode.
//
// Parameters:
//   - service: Name of the service, added as a field to every entry
//   - level: Minimum level to log
//
// Returns:
//   - A zerolog-backed Logger using a console writer
func NewConsole(service string, level zerolog.Level) Logger {
	cw := zerolog.ConsoleWriter{Out: os.Stderr}
	return &zerologLogger{
		l: zerolog.New(cw).With().Str("service", service).Timestamp().Logger().Level(level),
	}
}

// Nop returns a Logger that discards everything. Intended for tests and for
// components constructed without an explicit logger.
func Nop() Logger {
	return &zerologLogger{l: zerolog.Nop()}
}

// Debug implements Logger.
func (z *zerologLogger) Debug(msg string, fields ...Field) {
	z.l.Debug().Fields(toMap(fields)).Msg(msg)
}

// Info implements Logger.
func (z *zerologLogger) Info(msg string, fields ...Field) {
	z.l.Info().Fields(toMap(fields)).Msg(msg)
}

// Warn implements Logger.
func (z *zerologLogger) Warn(msg string, fields ...Field) {
	z.l.Warn().Fields(toMap(fields)).Msg(msg)
}

// Error implements Logger.
func (z *zerologLogger) Error(msg string, fields ...Field) {
	z.l.Error().Fields(toMap(fields)).Msg(msg)
}

// With implements Logger.
func (z *zerologLogger) With(fields ...Field) Logger {
	return &zerologLogger{l: z.l.With().Fields(toMap(fields)).Logger()}
}

// toMap converts a slice of Field into a map for zerolog.
func toMap(fields []Field) map[string]any {
	if len(fields) == 0 {
		return nil
	}

	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}

	return m
}

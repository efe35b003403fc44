// Package log provides structured logging for vaultenv.
// It wraps zerolog behind a small interface so packages can log without
// depending on zerolog directly, and so tests can swap in a no-op logger.
// Output goes to stderr by default; stdout is reserved for command output
// that callers may eval or pipe.
package log

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger provides structured logging with context support.
type Logger interface {
	// Debug logs a message at debug level.
	Debug() Event
	// Info logs a message at info level.
	Info() Event
	// Warn logs a message at warn level.
	Warn() Event
	// Error logs a message at error level.
	Error() Event

	// With returns a new Logger with the given key-value pair added to the context.
	With(key string, value interface{}) Logger
	// WithContext returns a new Logger carrying the correlation ID and
	// command name found in ctx.
	WithContext(ctx context.Context) Logger
}

// Event represents a log event that can have fields added before being sent.
type Event interface {
	Str(key, val string) Event
	Strs(key string, vals []string) Event
	Int(key string, val int) Event
	Bool(key string, val bool) Event
	Dur(key string, val time.Duration) Event
	Err(err error) Event
	Msg(msg string)
}

type logger struct {
	zl zerolog.Logger
}

type event struct {
	ze *zerolog.Event
}

// New creates a Logger writing to stderr with the given level and format.
// Level should be one of: debug, info, warn, error.
// Format should be one of: json, console.
func New(level, format string) Logger {
	return NewWithWriter(level, format, os.Stderr)
}

// NewWithWriter creates a new Logger with a custom writer.
func NewWithWriter(level, format string, w io.Writer) Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.DurationFieldInteger = false

	var output io.Writer = w
	if format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.Kitchen,
		}
	}

	zl := zerolog.New(output).With().Timestamp().Logger()
	zl = zl.Level(ParseLevel(level))

	return &logger{zl: zl}
}

// NewNop creates a no-op logger that discards all output.
func NewNop() Logger {
	return &logger{zl: zerolog.Nop()}
}

// ParseLevel converts a level name to a zerolog.Level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *logger) Debug() Event { return &event{ze: l.zl.Debug()} }
func (l *logger) Info() Event  { return &event{ze: l.zl.Info()} }
func (l *logger) Warn() Event  { return &event{ze: l.zl.Warn()} }
func (l *logger) Error() Event { return &event{ze: l.zl.Error()} }

func (l *logger) With(key string, value interface{}) Logger {
	return &logger{zl: l.zl.With().Interface(key, value).Logger()}
}

func (l *logger) WithContext(ctx context.Context) Logger {
	zl := l.zl
	if id := CorrelationIDFromContext(ctx); id != "" {
		zl = zl.With().Str("correlation_id", id).Logger()
	}
	if name := CommandFromContext(ctx); name != "" {
		zl = zl.With().Str("command", name).Logger()
	}
	return &logger{zl: zl}
}

func (e *event) Str(key, val string) Event {
	e.ze = e.ze.Str(key, val)
	return e
}

func (e *event) Strs(key string, vals []string) Event {
	e.ze = e.ze.Strs(key, vals)
	return e
}

func (e *event) Int(key string, val int) Event {
	e.ze = e.ze.Int(key, val)
	return e
}

func (e *event) Bool(key string, val bool) Event {
	e.ze = e.ze.Bool(key, val)
	return e
}

func (e *event) Dur(key string, val time.Duration) Event {
	e.ze = e.ze.Dur(key, val)
	return e
}

func (e *event) Err(err error) Event {
	e.ze = e.ze.Err(err)
	return e
}

func (e *event) Msg(msg string) {
	e.ze.Msg(msg)
}

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	commandKey       contextKey = "command"
	loggerKey        contextKey = "logger"
)

// ContextWithCorrelationID tags ctx with the ID of the current invocation.
func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey, correlationID)
}

// CorrelationIDFromContext extracts the correlation ID from the context.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithCommand records the CLI command being run.
func ContextWithCommand(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, commandKey, name)
}

// CommandFromContext extracts the command name from the context.
func CommandFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(commandKey).(string); ok {
		return name
	}
	return ""
}

// ContextWithLogger adds a logger to the context.
func ContextWithLogger(ctx context.Context, log Logger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext extracts the logger from the context.
// Returns a no-op logger if none is present.
func FromContext(ctx context.Context) Logger {
	if log, ok := ctx.Value(loggerKey).(Logger); ok {
		return log
	}
	return NewNop()
}

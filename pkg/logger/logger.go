package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger defines the interface for logging in the Anima controller.
// It provides standard logging levels and a mechanism to add structured context.
type Logger interface {
	// Debug logs a message at the debug level.
	Debug(msg string, args ...any)
	// Info logs a message at the info level.
	Info(msg string, args ...any)
	// Warn logs a message at the warning level.
	Warn(msg string, args ...any)
	// Error logs a message at the error level.
	Error(msg string, args ...any)
	// With returns a new Logger with the given structured context added.
	With(args ...any) Logger
}

// Log is the global logger instance used by the CLI and the control loop.
// It is initialized with a default JSON handler pointing to stdout.
var Log Logger = New(os.Stdout, "info")

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Anything else is treated as info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a JSON Logger writing to w at the given level.
func New(w io.Writer, level string) Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
		// Add source file info for better debugging
		AddSource: true,
	}
	return &wrapper{l: slog.New(slog.NewJSONHandler(w, opts))}
}

// InitLogger replaces the global Log instance with one at the specified level.
func InitLogger(level string) {
	Log = New(os.Stdout, level)
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return New(io.Discard, "error")
}

// Component returns l (or the global Log when l is nil) tagged with a component name.
func Component(l Logger, name string) Logger {
	if l == nil {
		l = Log
	}
	return l.With("component", name)
}

type wrapper struct {
	l *slog.Logger
}

func (w *wrapper) Debug(msg string, args ...any) { w.l.Debug(msg, args...) }
func (w *wrapper) Info(msg string, args ...any)  { w.l.Info(msg, args...) }
func (w *wrapper) Warn(msg string, args ...any)  { w.l.Warn(msg, args...) }
func (w *wrapper) Error(msg string, args ...any) { w.l.Error(msg, args...) }
func (w *wrapper) With(args ...any) Logger       { return &wrapper{l: w.l.With(args...)} }

// Personal.AI order the ending

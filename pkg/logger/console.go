package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewConsole builds a human-readable Logger for bench work, backed by zap's
// development encoder.
func NewConsole(w io.Writer, level string) Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), zapLevel(level))
	return &sugared{l: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()}
}

// Init replaces the global Log. format "console" selects NewConsole,
// anything else the JSON logger.
func Init(level, format string) {
	if format == "console" {
		Log = NewConsole(os.Stdout, level)
		return
	}
	InitLogger(level)
}

func zapLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

type sugared struct {
	l *zap.SugaredLogger
}

func (s *sugared) Debug(msg string, args ...any) { s.l.Debugw(msg, args...) }
func (s *sugared) Info(msg string, args ...any)  { s.l.Infow(msg, args...) }
func (s *sugared) Warn(msg string, args ...any)  { s.l.Warnw(msg, args...) }
func (s *sugared) Error(msg string, args ...any) { s.l.Errorw(msg, args...) }
func (s *sugared) With(args ...any) Logger       { return &sugared{l: s.l.With(args...)} }

// Personal.AI order the ending

package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLogger_DefaultInitialization(t *testing.T) {
	// Log should be initialized by default and not panic
	if Log == nil {
		t.Fatal("Log should not be nil by default")
	}

	// Should not panic
	Log.Info("Testing default logger")
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")

	l.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}

	l.Warn("kept", "code", 3)
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected a JSON record: %v", err)
	}
	if rec["msg"] != "kept" {
		t.Errorf("Expected msg kept, got %v", rec["msg"])
	}
}

func TestLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	l := Component(New(&buf, "debug"), "alarm")
	l.Debug("hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected a JSON record: %v", err)
	}
	if rec["component"] != "alarm" {
		t.Errorf("Expected component alarm, got %v", rec["component"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	l := Component(NewConsole(&buf, "info"), "breath")
	l.Debug("dropped")
	l.Warn("inspiration timed out", "volume", 212.5)

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("debug record should be filtered, got %q", out)
	}
	for _, want := range []string{"WARN", "inspiration timed out", "breath", "212.5"} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q: %q", want, out)
		}
	}
}

func TestInitSelectsFormat(t *testing.T) {
	saved := Log
	defer func() { Log = saved }()

	Init("info", "console")
	if _, ok := Log.(*sugared); !ok {
		t.Errorf("console format should install the zap logger, got %T", Log)
	}
	Init("info", "json")
	if _, ok := Log.(*wrapper); !ok {
		t.Errorf("json format should install the slog logger, got %T", Log)
	}
}

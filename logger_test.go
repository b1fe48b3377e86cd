package realtime

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"INFO", LogLevelInfo},
		{"Warn", LogLevelWarn},
		{"WARNING", LogLevelWarn},
		{"error", LogLevelError},
		{"off", LogLevelOff},
		{"nonsense", LogLevelInfo},
		{"", LogLevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	// Every component accepts a nil logger; logging must be a no-op, not a
	// panic.
	l.Debug("event", nil)
	l.Info("event", map[string]any{"k": 1})
	l.Warn("event", nil)
	l.Error("event", nil)
}

func TestWithContextMergesFields(t *testing.T) {
	var buf bytes.Buffer
	base := &Logger{
		level:  LogLevelDebug,
		prefix: "[voicechat]",
		logger: log.New(&buf, "", 0),
	}
	cl := base.WithContext(map[string]any{"relay": "ws://localhost:8080", "model": "gpt-realtime"})

	cl.Info("connected", map[string]any{"attempt": 1})
	line := buf.String()
	for _, want := range []string{"relay=ws://localhost:8080", "model=gpt-realtime", "attempt=1", "connected"} {
		if !strings.Contains(line, want) {
			t.Errorf("log line missing %q: %s", want, line)
		}
	}

	// Message fields override context fields with the same key.
	buf.Reset()
	cl.Warn("model_switch", map[string]any{"model": "gpt-realtime-mini"})
	line = buf.String()
	if !strings.Contains(line, "model=gpt-realtime-mini") {
		t.Errorf("message field should override context field: %s", line)
	}
	if strings.Contains(line, "model=gpt-realtime ") {
		t.Errorf("stale context value leaked into log line: %s", line)
	}
}

func TestWithContextOnNilLogger(t *testing.T) {
	var l *Logger
	cl := l.WithContext(map[string]any{"relay": "ws://localhost:8080"})
	// Still a no-op, not a panic.
	cl.Debug("event", nil)
	cl.Error("event", map[string]any{"k": 1})
}

func TestLogLevelString(t *testing.T) {
	if LogLevelDebug.String() != "DEBUG" || LogLevelOff.String() != "OFF" {
		t.Error("unexpected level names")
	}
	if LogLevel(99).String() != "UNKNOWN" {
		t.Error("out-of-range level should stringify as UNKNOWN")
	}
}

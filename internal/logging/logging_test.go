package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func newTestLogger(buf *bytes.Buffer, level Level) *Logger {
	l := New(Config{Level: level, Output: buf, Prefix: "test"})
	l.sink.now = func() time.Time {
		return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	}
	return l
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, LevelDebug)

	l.WithFields(map[string]any{"b": 2, "a": 1}).Info("loaded %d lines", 3)

	want := "2024-01-02T03:04:05.000 [INFO] test: loaded 3 lines {a=1, b=2}\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, LevelWarn)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("shown too")

	if n := strings.Count(buf.String(), "\n"); n != 2 {
		t.Errorf("expected 2 lines, got %d: %q", n, buf.String())
	}
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("filtered message written: %q", buf.String())
	}
}

func TestDerivedLoggerSharesSink(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, LevelInfo)
	child := l.WithComponent("lines")

	l.SetLevel(LevelError)
	child.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("child ignored parent level: %q", buf.String())
	}

	l.Disable()
	child.Error("dropped")
	if buf.Len() != 0 {
		t.Errorf("child ignored Disable: %q", buf.String())
	}

	l.Enable()
	child.Error("kept")
	if !strings.Contains(buf.String(), "{component=lines}") {
		t.Errorf("missing component field: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNopAndNil(t *testing.T) {
	Nop().Error("nothing")
	var l *Logger
	l.Info("nil logger is safe")
	if Nop().Enabled(LevelError) {
		t.Error("Nop logger reports enabled")
	}
}

func TestSetLogger(t *testing.T) {
	prev := GetLogger()
	defer SetLogger(prev)

	var buf bytes.Buffer
	SetLogger(newTestLogger(&buf, LevelInfo))
	GetLogger().Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("process logger not replaced: %q", buf.String())
	}
}

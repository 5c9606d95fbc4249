package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := parseLevel(tc.input); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestConsoleHandlerFormatsComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	NewComponentLogger(logger, "session").Info("turn admitted", String("provider", "ollama"))

	line := buf.String()
	if !strings.Contains(line, "[session]") {
		t.Errorf("expected component tag in output, got %q", line)
	}
	if !strings.Contains(line, "turn admitted") {
		t.Errorf("expected message in output, got %q", line)
	}
	if !strings.Contains(line, "provider=ollama") {
		t.Errorf("expected field in output, got %q", line)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be suppressed at warn level: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("should not panic", Error(nil))
}

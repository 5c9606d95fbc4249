package main

import (
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{name: "short passthrough", input: "hello", max: 10, want: "hello"},
		{name: "exact length", input: "hello", max: 5, want: "hello"},
		{name: "truncated", input: "hello world", max: 8, want: "hello..."},
		{name: "tiny max passthrough", input: "hello", max: 3, want: "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.input, tt.max); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Kind", "Name"},
		[][]string{{"lora", "miko.safetensors"}, {"checkpoint", "base.safetensors"}},
		[]columnAlignment{alignLeft, alignLeft},
	)
	if !strings.Contains(out, "miko.safetensors") || !strings.Contains(out, "Kind") {
		t.Errorf("table missing content:\n%s", out)
	}
}

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("Provider", statusOK, "ollama", false)
	if !strings.Contains(line, "Provider:") || !strings.Contains(line, "[OK] ollama") {
		t.Errorf("line = %q", line)
	}

	colored := renderStatusLine("Provider", statusError, "down", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Errorf("colored line = %q", colored)
	}
}

func TestYesNo(t *testing.T) {
	if yesNo(true) != "yes" || yesNo(false) != "no" {
		t.Error("yesNo mapping broken")
	}
}

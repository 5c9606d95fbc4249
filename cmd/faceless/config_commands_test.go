package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	cmd := newConfigInitCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[llm]") {
		t.Errorf("sample missing llm section:\n%s", data)
	}
	if !strings.Contains(out.String(), target) {
		t.Errorf("output should mention target path, got %q", out.String())
	}
}

func TestConfigInitRefusesExistingFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(target, []byte("# existing"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	cmd := newConfigInitCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--path", target})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for existing file")
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(data) != "# existing" {
		t.Error("existing file was overwritten")
	}
}

func TestConfigInitOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(target, []byte("# existing"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	cmd := newConfigInitCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"--path", target, "--overwrite"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.Contains(string(data), "[comfy]") {
		t.Error("sample was not written over the existing file")
	}
}

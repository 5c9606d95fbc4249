package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"faceless/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "faceless")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Fatalf("unexpected default provider: %q", cfg.LLM.Provider)
	}
	if cfg.Comfy.BaseURL != "http://127.0.0.1:8188" {
		t.Fatalf("unexpected comfy base url: %q", cfg.Comfy.BaseURL)
	}
	if cfg.Generation.Seed != nil {
		t.Fatal("expected random seed mode by default")
	}
	if cfg.Generation.Steps != 8 || cfg.Generation.CFG != 2.2 {
		t.Fatalf("unexpected sampler defaults: steps=%d cfg=%v", cfg.Generation.Steps, cfg.Generation.CFG)
	}
	if !cfg.Generation.RejectWhileBusy {
		t.Fatal("expected reject_while_busy default true")
	}
	if !strings.HasPrefix(cfg.ArtifactsDir(), cfg.Paths.DataDir) {
		t.Fatalf("artifacts dir %q not under data dir", cfg.ArtifactsDir())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.ArtifactsDir()} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}

func TestLoadAppliesOverridesAndEnvKeys(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gk-env")
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[llm]
provider = "groq"
groq_model = "llama-3.1-8b-instant"

[generation]
seed = 42
steps = 12
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected existing config")
	}
	if cfg.LLM.Provider != "groq" || cfg.LLM.GroqModel != "llama-3.1-8b-instant" {
		t.Fatalf("overrides not applied: %+v", cfg.LLM)
	}
	if cfg.LLM.GroqAPIKey != "gk-env" {
		t.Fatalf("expected groq key from env, got %q", cfg.LLM.GroqAPIKey)
	}
	if cfg.Generation.Seed == nil || *cfg.Generation.Seed != 42 {
		t.Fatalf("expected fixed seed 42, got %v", cfg.Generation.Seed)
	}
	if cfg.Generation.Steps != 12 {
		t.Fatalf("expected steps 12, got %d", cfg.Generation.Steps)
	}
	if cfg.Generation.CFG != 2.2 {
		t.Fatalf("expected default cfg retained, got %v", cfg.Generation.CFG)
	}
}

func TestLoadHealsPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[llm]
provider = "ollama"
legacy_unknown_key = "dropped"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	healed, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read healed config: %v", err)
	}
	text := string(healed)
	if strings.Contains(text, "legacy_unknown_key") {
		t.Error("unknown key survived healing")
	}
	if !strings.Contains(text, "steps = 8") {
		t.Error("missing keys not filled with defaults")
	}
	if !strings.Contains(text, "[comfy]") {
		t.Error("missing sections not filled")
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[llm]\nprovider = \"mystery\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "llm.provider") {
		t.Fatalf("expected provider validation error, got %v", err)
	}
}

func TestValidateFallbackRules(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = "ollama"
	cfg.LLM.FallbackProvider = "ollama"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for fallback equal to primary")
	}

	cfg = config.Default()
	cfg.LLM.PreferFallbackWhileBusy = true
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for prefer_fallback_while_busy without fallback")
	}
}

func TestCreateSampleLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.LLM.Provider != "ollama" {
		t.Fatalf("unexpected provider in sample: %q", cfg.LLM.Provider)
	}
}

func TestExpandPathTilde(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	got, err := config.ExpandPath("~/workflow.json")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(tempHome, "workflow.json") {
		t.Fatalf("ExpandPath = %q", got)
	}
}

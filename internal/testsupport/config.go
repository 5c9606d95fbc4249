// Package testsupport provides helpers for building isolated test
// configurations backed by per-test temp directories.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"faceless/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test
// and a minimal workflow template on disk. It applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Comfy.WorkflowTemplate = WriteWorkflowTemplate(t, base)

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithNtfyTopic enables notifications on the test config.
func WithNtfyTopic(topic string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.NtfyTopic = topic
	}
}

// WithProvider overrides the primary language model provider.
func WithProvider(name string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.LLM.Provider = name
	}
}

// WriteWorkflowTemplate writes a minimal two-node workflow template into
// dir and returns its path.
func WriteWorkflowTemplate(t testing.TB, dir string) string {
	t.Helper()

	const template = `{
	"6": {"class_type": "CLIPTextEncode", "inputs": {"text": ""}, "_meta": {"title": "__PROMPT_POS__"}},
	"3": {"class_type": "KSampler", "inputs": {"seed": 0, "steps": 20, "cfg": 7.0}, "_meta": {"title": "__SAMPLER_MAIN__"}}
}`
	path := filepath.Join(dir, "workflow_api.json")
	if err := os.WriteFile(path, []byte(template), 0o644); err != nil {
		t.Fatalf("write workflow template: %v", err)
	}
	return path
}

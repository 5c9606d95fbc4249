package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// LLM selects the chat provider and carries per-provider credentials.
type LLM struct {
	Provider                string `toml:"provider"`
	FallbackProvider        string `toml:"fallback_provider"`
	PreferFallbackWhileBusy bool   `toml:"prefer_fallback_while_busy"`
	OpenAIAPIKey            string `toml:"openai_api_key"`
	OpenAIBaseURL           string `toml:"openai_base_url"`
	OpenAIModel             string `toml:"openai_model"`
	GroqAPIKey              string `toml:"groq_api_key"`
	GroqModel               string `toml:"groq_model"`
	GeminiAPIKey            string `toml:"gemini_api_key"`
	GeminiModel             string `toml:"gemini_model"`
	OllamaHost              string `toml:"ollama_host"`
	OllamaModel             string `toml:"ollama_model"`
}

// Comfy contains the image backend connection and polling settings.
type Comfy struct {
	BaseURL              string `toml:"base_url"`
	WorkflowTemplate     string `toml:"workflow_template"`
	PollIntervalMS       int    `toml:"poll_interval_ms"`
	WaitTimeoutSeconds   int    `toml:"wait_timeout_seconds"`
	BusyExtensionSeconds int    `toml:"busy_extension_seconds"`
}

// Character describes the persistent persona rendered in every image.
type Character struct {
	VisualBase      string  `toml:"visual_base"`
	IdentityProfile string  `toml:"identity_profile"`
	LoraName        string  `toml:"lora_name"`
	LoraStrength    float64 `toml:"lora_strength"`
}

// Generation contains the sampler defaults for each image run. A nil
// Seed means a fresh random seed per turn.
type Generation struct {
	Seed            *int64  `toml:"seed"`
	Steps           int     `toml:"steps"`
	CFG             float64 `toml:"cfg"`
	SamplerName     string  `toml:"sampler_name"`
	Scheduler       string  `toml:"scheduler"`
	QualityTags     string  `toml:"quality_tags"`
	Negative        string  `toml:"negative"`
	Checkpoint      string  `toml:"checkpoint"`
	RejectWhileBusy bool    `toml:"reject_while_busy"`
	HistoryLimit    int     `toml:"history_limit"`
}

// Notifications contains ntfy push notification settings.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Generation     bool   `toml:"generation"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Faceless.
type Config struct {
	Paths         Paths         `toml:"paths"`
	LLM           LLM           `toml:"llm"`
	Comfy         Comfy         `toml:"comfy"`
	Character     Character     `toml:"character"`
	Generation    Generation    `toml:"generation"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/faceless/config.toml")
}

// Load locates, parses, heals, and validates a configuration file. The
// returned config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		raw, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		heal(&cfg, raw, resolvedPath)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// heal rewrites the file in canonical form when it drifts from the merged
// view: missing keys gain their defaults, unknown keys disappear. Best
// effort, a read-only config directory never blocks startup.
func heal(cfg *Config, raw []byte, path string) {
	canonical, err := toml.Marshal(cfg)
	if err != nil {
		return
	}
	if bytes.Equal(bytes.TrimSpace(raw), bytes.TrimSpace(canonical)) {
		return
	}
	_ = os.WriteFile(path, canonical, 0o644)
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("faceless.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.ArtifactsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ArtifactsDir returns the directory generated images are written to.
func (c *Config) ArtifactsDir() string {
	return filepath.Join(c.Paths.DataDir, "artifacts")
}

// DatabasePath returns the location of the turn history database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "faceless.db")
}

// SocketPath returns the unix socket the daemon listens on.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.DataDir, "faceless.sock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	if err := c.normalizeComfy(); err != nil {
		return err
	}
	c.normalizeCharacter()
	c.normalizeGeneration()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = defaultProvider
	}
	c.LLM.FallbackProvider = strings.ToLower(strings.TrimSpace(c.LLM.FallbackProvider))

	c.LLM.OpenAIAPIKey = strings.TrimSpace(c.LLM.OpenAIAPIKey)
	if c.LLM.OpenAIAPIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.LLM.OpenAIAPIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.GroqAPIKey = strings.TrimSpace(c.LLM.GroqAPIKey)
	if c.LLM.GroqAPIKey == "" {
		if value, ok := os.LookupEnv("GROQ_API_KEY"); ok {
			c.LLM.GroqAPIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.GeminiAPIKey = strings.TrimSpace(c.LLM.GeminiAPIKey)
	if c.LLM.GeminiAPIKey == "" {
		if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
			c.LLM.GeminiAPIKey = strings.TrimSpace(value)
		}
	}

	c.LLM.OpenAIBaseURL = strings.TrimSpace(c.LLM.OpenAIBaseURL)
	if c.LLM.OpenAIModel = strings.TrimSpace(c.LLM.OpenAIModel); c.LLM.OpenAIModel == "" {
		c.LLM.OpenAIModel = defaultOpenAIModel
	}
	if c.LLM.GroqModel = strings.TrimSpace(c.LLM.GroqModel); c.LLM.GroqModel == "" {
		c.LLM.GroqModel = defaultGroqModel
	}
	if c.LLM.GeminiModel = strings.TrimSpace(c.LLM.GeminiModel); c.LLM.GeminiModel == "" {
		c.LLM.GeminiModel = defaultGeminiModel
	}
	if c.LLM.OllamaHost = strings.TrimSpace(c.LLM.OllamaHost); c.LLM.OllamaHost == "" {
		c.LLM.OllamaHost = defaultOllamaHost
	}
	if c.LLM.OllamaModel = strings.TrimSpace(c.LLM.OllamaModel); c.LLM.OllamaModel == "" {
		c.LLM.OllamaModel = defaultOllamaModel
	}
}

func (c *Config) normalizeComfy() error {
	c.Comfy.BaseURL = strings.TrimRight(strings.TrimSpace(c.Comfy.BaseURL), "/")
	if c.Comfy.BaseURL == "" {
		c.Comfy.BaseURL = defaultComfyBaseURL
	}
	if strings.TrimSpace(c.Comfy.WorkflowTemplate) == "" {
		c.Comfy.WorkflowTemplate = defaultWorkflowTemplate
	}
	var err error
	if c.Comfy.WorkflowTemplate, err = expandPath(c.Comfy.WorkflowTemplate); err != nil {
		return fmt.Errorf("comfy.workflow_template: %w", err)
	}
	if c.Comfy.PollIntervalMS <= 0 {
		c.Comfy.PollIntervalMS = defaultPollIntervalMS
	}
	if c.Comfy.WaitTimeoutSeconds <= 0 {
		c.Comfy.WaitTimeoutSeconds = defaultWaitTimeoutSeconds
	}
	if c.Comfy.BusyExtensionSeconds <= 0 {
		c.Comfy.BusyExtensionSeconds = defaultBusyExtensionSeconds
	}
	return nil
}

func (c *Config) normalizeCharacter() {
	c.Character.VisualBase = strings.TrimSpace(c.Character.VisualBase)
	c.Character.IdentityProfile = strings.TrimSpace(c.Character.IdentityProfile)
	c.Character.LoraName = strings.TrimSpace(c.Character.LoraName)
	if c.Character.LoraStrength == 0 {
		c.Character.LoraStrength = defaultLoraStrength
	}
}

func (c *Config) normalizeGeneration() {
	if c.Generation.Steps <= 0 {
		c.Generation.Steps = defaultSteps
	}
	if c.Generation.CFG <= 0 {
		c.Generation.CFG = defaultCFG
	}
	if c.Generation.SamplerName = strings.TrimSpace(c.Generation.SamplerName); c.Generation.SamplerName == "" {
		c.Generation.SamplerName = defaultSamplerName
	}
	if c.Generation.Scheduler = strings.TrimSpace(c.Generation.Scheduler); c.Generation.Scheduler == "" {
		c.Generation.Scheduler = defaultScheduler
	}
	c.Generation.QualityTags = strings.TrimSpace(c.Generation.QualityTags)
	c.Generation.Negative = strings.TrimSpace(c.Generation.Negative)
	c.Generation.Checkpoint = strings.TrimSpace(c.Generation.Checkpoint)
	if c.Generation.HistoryLimit <= 0 {
		c.Generation.HistoryLimit = defaultHistoryLimit
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

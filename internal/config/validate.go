package config

import (
	"errors"
	"fmt"
	"net/url"
)

var knownProviders = map[string]struct{}{
	"openai": {},
	"groq":   {},
	"gemini": {},
	"ollama": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateComfy(); err != nil {
		return err
	}
	if err := c.validateCharacter(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLLM() error {
	if _, ok := knownProviders[c.LLM.Provider]; !ok {
		return fmt.Errorf("llm.provider %q is not one of openai, groq, gemini, ollama", c.LLM.Provider)
	}
	if c.LLM.FallbackProvider != "" {
		if _, ok := knownProviders[c.LLM.FallbackProvider]; !ok {
			return fmt.Errorf("llm.fallback_provider %q is not one of openai, groq, gemini, ollama", c.LLM.FallbackProvider)
		}
		if c.LLM.FallbackProvider == c.LLM.Provider {
			return errors.New("llm.fallback_provider must differ from llm.provider")
		}
	}
	if c.LLM.PreferFallbackWhileBusy && c.LLM.FallbackProvider == "" {
		return errors.New("llm.prefer_fallback_while_busy requires llm.fallback_provider")
	}
	return nil
}

func (c *Config) validateComfy() error {
	parsed, err := url.Parse(c.Comfy.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("comfy.base_url %q must be an absolute http(s) URL", c.Comfy.BaseURL)
	}
	if c.Comfy.WorkflowTemplate == "" {
		return errors.New("comfy.workflow_template must be set")
	}
	return nil
}

func (c *Config) validateCharacter() error {
	if c.Character.LoraStrength < 0 || c.Character.LoraStrength > 2 {
		return errors.New("character.lora_strength must be between 0 and 2")
	}
	return nil
}

func (c *Config) validateGeneration() error {
	if c.Generation.Seed != nil && *c.Generation.Seed < 0 {
		return errors.New("generation.seed must not be negative")
	}
	if c.Generation.Steps > 150 {
		return errors.New("generation.steps must be at most 150")
	}
	if c.Generation.HistoryLimit > 200 {
		return errors.New("generation.history_limit must be at most 200")
	}
	return nil
}

package llm

import (
	"context"
	"log/slog"
	"strings"

	"faceless/internal/services"
)

// Settings carries the provider credentials and model names from the
// config layer. Only the fields for the selected provider are consulted.
type Settings struct {
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	GroqAPIKey    string
	GroqModel     string
	GeminiAPIKey  string
	GeminiModel   string
	OllamaHost    string
	OllamaModel   string
}

// New constructs the named provider from the settings.
func New(ctx context.Context, name string, settings Settings, logger *slog.Logger) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "openai":
		return NewOpenAI("openai", settings.OpenAIAPIKey, settings.OpenAIBaseURL, settings.OpenAIModel)
	case "groq":
		return NewOpenAI("groq", settings.GroqAPIKey, GroqBaseURL, settings.GroqModel)
	case "gemini":
		return NewGemini(ctx, settings.GeminiAPIKey, settings.GeminiModel)
	case "ollama":
		return NewOllama(settings.OllamaHost, settings.OllamaModel, logger)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "llm", "init", "unknown provider "+strings.TrimSpace(name), nil)
	}
}

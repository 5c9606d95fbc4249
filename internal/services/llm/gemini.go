package llm

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"faceless/internal/services"
)

// GeminiProvider serves Google Gemini through the official SDK.
type GeminiProvider struct {
	model  string
	client *genai.Client
}

// NewGemini constructs a Gemini provider. The SDK wants a context at
// client construction, so this runs during daemon startup.
func NewGemini(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "gemini", "init", "api key required", nil)
	}
	if strings.TrimSpace(model) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "gemini", "init", "model required", nil)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "gemini", "init", "create client", err)
	}
	return &GeminiProvider{model: model, client: client}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Generate(ctx context.Context, messages []Message) (string, error) {
	var config genai.GenerateContentConfig
	contents := make([]*genai.Content, 0, len(messages))
	for _, message := range messages {
		switch message.Role {
		case RoleSystem:
			config.SystemInstruction = genai.NewContentFromText(message.Content, genai.RoleUser)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(message.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(message.Content, genai.RoleUser))
		}
	}

	response, err := p.client.Models.GenerateContent(ctx, p.model, contents, &config)
	if err != nil {
		return "", services.Wrap(services.ErrExternalService, "gemini", "generate", "generate content failed", err)
	}
	reply := response.Text()
	if strings.TrimSpace(reply) == "" {
		return "", services.Wrap(services.ErrExternalService, "gemini", "generate", "empty response", nil)
	}
	return reply, nil
}

package llm

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"faceless/internal/services"
)

// GroqBaseURL is the OpenAI-compatible endpoint Groq exposes.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// OpenAIProvider serves any OpenAI-compatible chat endpoint. Groq runs
// through the same client with a different base URL.
type OpenAIProvider struct {
	name   string
	model  string
	client *openai.Client
}

// NewOpenAI constructs a provider against an OpenAI-compatible API.
func NewOpenAI(name, apiKey, baseURL, model string) (*OpenAIProvider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, name, "init", "api key required", nil)
	}
	if strings.TrimSpace(model) == "" {
		return nil, services.Wrap(services.ErrConfiguration, name, "init", "model required", nil)
	}
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAIProvider{
		name:   name,
		model:  model,
		client: openai.NewClientWithConfig(clientConfig),
	}, nil
}

func (p *OpenAIProvider) Name() string { return p.name }

func (p *OpenAIProvider) Generate(ctx context.Context, messages []Message) (string, error) {
	request := openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, message := range messages {
		request.Messages = append(request.Messages, openai.ChatCompletionMessage{
			Role:    message.Role,
			Content: message.Content,
		})
	}

	response, err := p.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", services.Wrap(services.ErrExternalService, p.name, "generate", "chat completion failed", err)
	}
	if len(response.Choices) == 0 {
		return "", services.Wrap(services.ErrExternalService, p.name, "generate", "response contains no choices", nil)
	}
	return response.Choices[0].Message.Content, nil
}

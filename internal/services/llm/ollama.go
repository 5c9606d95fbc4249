package llm

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"faceless/internal/logging"
	"faceless/internal/services"
)

// OllamaProvider talks to a local Ollama daemon. Missing models are
// pulled on demand so a fresh install works without manual setup.
type OllamaProvider struct {
	model  string
	client *api.Client
	logger *slog.Logger
}

// NewOllama constructs a provider for the Ollama host.
func NewOllama(host, model string, logger *slog.Logger) (*OllamaProvider, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, services.Wrap(services.ErrConfiguration, "ollama", "init", "host required", nil)
	}
	if strings.TrimSpace(model) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "ollama", "init", "model required", nil)
	}
	base, err := url.Parse(host)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "ollama", "init", "invalid host", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &OllamaProvider{
		model:  model,
		client: api.NewClient(base, http.DefaultClient),
		logger: logger.With(logging.String(logging.FieldComponent, "ollama")),
	}, nil
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) Generate(ctx context.Context, messages []Message) (string, error) {
	reply, err := p.chat(ctx, messages)
	if err == nil {
		return reply, nil
	}
	if !strings.Contains(err.Error(), "not found") {
		return "", services.Wrap(services.ErrExternalService, "ollama", "generate", "chat failed", err)
	}

	p.logger.Info("model missing, pulling", logging.String("model", p.model))
	if pullErr := p.client.Pull(ctx, &api.PullRequest{Model: p.model}, func(api.ProgressResponse) error { return nil }); pullErr != nil {
		return "", services.Wrap(services.ErrExternalService, "ollama", "generate", "pull model", pullErr)
	}
	reply, err = p.chat(ctx, messages)
	if err != nil {
		return "", services.Wrap(services.ErrExternalService, "ollama", "generate", "chat failed after pull", err)
	}
	return reply, nil
}

func (p *OllamaProvider) chat(ctx context.Context, messages []Message) (string, error) {
	converted := make([]api.Message, 0, len(messages))
	for _, message := range messages {
		converted = append(converted, api.Message{Role: message.Role, Content: message.Content})
	}

	stream := false
	request := &api.ChatRequest{
		Model:    p.model,
		Messages: converted,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": 0.6,
			"top_p":       0.9,
			"num_ctx":     4096,
		},
	}

	var builder strings.Builder
	err := p.client.Chat(ctx, request, func(response api.ChatResponse) error {
		builder.WriteString(response.Message.Content)
		return nil
	})
	if err != nil {
		return "", err
	}
	return builder.String(), nil
}

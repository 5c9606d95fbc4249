package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"faceless/internal/config"
)

const userAgent = "Faceless-Go/0.1.0"

// Service defines the notification surface exposed to the session.
type Service interface {
	NotifyGenerationCompleted(ctx context.Context, location, artifactPath string) error
	NotifyGenerationFailed(ctx context.Context, err error, step string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:        topic,
		client:          &http.Client{Timeout: timeout},
		sendGenerations: cfg.Notifications.Generation,
		sendErrorAlerts: cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint        string
	client          *http.Client
	sendGenerations bool
	sendErrorAlerts bool
}

func (n *ntfyService) NotifyGenerationCompleted(ctx context.Context, location, artifactPath string) error {
	if !n.sendGenerations {
		return nil
	}
	location = strings.TrimSpace(location)
	message := fmt.Sprintf("Scene ready: %s", location)
	if artifactPath = strings.TrimSpace(artifactPath); artifactPath != "" {
		message = fmt.Sprintf("%s\nImage: %s", message, artifactPath)
	}
	data := payload{
		title:   "Faceless - Scene Ready",
		message: message,
		tags:    []string{"faceless", "generation", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyGenerationFailed(ctx context.Context, err error, step string) error {
	if !n.sendErrorAlerts {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Generation failed")
	if step = strings.TrimSpace(step); step != "" {
		builder.WriteString(" during ")
		builder.WriteString(step)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Faceless - Error",
		message:  builder.String(),
		tags:     []string{"faceless", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Faceless - Test",
		message:  "Notification system test",
		tags:     []string{"faceless", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyGenerationCompleted(context.Context, string, string) error { return nil }
func (noopService) NotifyGenerationFailed(context.Context, error, string) error     { return nil }
func (noopService) TestNotification(context.Context) error                          { return nil }

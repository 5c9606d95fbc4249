package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"faceless/internal/config"
	"faceless/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T, sink *[]captured) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*sink = append(*sink, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
	}))
}

func TestNoTopicIsNoop(t *testing.T) {
	cfg := config.Default()
	service := notifications.NewService(&cfg)
	if err := service.TestNotification(context.Background()); err != nil {
		t.Fatalf("noop TestNotification: %v", err)
	}
	if err := service.NotifyGenerationCompleted(context.Background(), "cafe", "/tmp/a.png"); err != nil {
		t.Fatalf("noop NotifyGenerationCompleted: %v", err)
	}
}

func TestGenerationCompleted(t *testing.T) {
	var sink []captured
	server := newCaptureServer(t, &sink)
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	service := notifications.NewService(&cfg)

	if err := service.NotifyGenerationCompleted(context.Background(), "cafe", "/data/a.png"); err != nil {
		t.Fatalf("NotifyGenerationCompleted: %v", err)
	}
	if len(sink) != 1 {
		t.Fatalf("requests = %d, want 1", len(sink))
	}
	if sink[0].title != "Faceless - Scene Ready" {
		t.Errorf("title = %q", sink[0].title)
	}
	if !strings.Contains(sink[0].body, "cafe") || !strings.Contains(sink[0].body, "/data/a.png") {
		t.Errorf("body = %q", sink[0].body)
	}
}

func TestGenerationFailedIsHighPriority(t *testing.T) {
	var sink []captured
	server := newCaptureServer(t, &sink)
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	service := notifications.NewService(&cfg)

	if err := service.NotifyGenerationFailed(context.Background(), errors.New("boom"), "queue prompt"); err != nil {
		t.Fatalf("NotifyGenerationFailed: %v", err)
	}
	if len(sink) != 1 {
		t.Fatalf("requests = %d, want 1", len(sink))
	}
	if sink[0].priority != "high" {
		t.Errorf("priority = %q", sink[0].priority)
	}
	if !strings.Contains(sink[0].body, "queue prompt") || !strings.Contains(sink[0].body, "boom") {
		t.Errorf("body = %q", sink[0].body)
	}
}

func TestTogglesSuppressEvents(t *testing.T) {
	var sink []captured
	server := newCaptureServer(t, &sink)
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Generation = false
	cfg.Notifications.Errors = false
	service := notifications.NewService(&cfg)

	if err := service.NotifyGenerationCompleted(context.Background(), "cafe", ""); err != nil {
		t.Fatalf("NotifyGenerationCompleted: %v", err)
	}
	if err := service.NotifyGenerationFailed(context.Background(), errors.New("boom"), ""); err != nil {
		t.Fatalf("NotifyGenerationFailed: %v", err)
	}
	if len(sink) != 0 {
		t.Errorf("requests = %d, want 0 with toggles off", len(sink))
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	service := notifications.NewService(&cfg)

	if err := service.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error from 403 response")
	}
}

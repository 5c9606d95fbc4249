package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("connection refused")
	err := Wrap(ErrConnectivity, "comfy", "ping", "backend unreachable", base)
	if !errors.Is(err, ErrConnectivity) {
		t.Fatalf("expected ErrConnectivity marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause to survive, got %v", err)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "comfy", "submit", "", nil)
	if !errors.Is(err, ErrExternalService) {
		t.Fatalf("expected default ErrExternalService marker, got %v", err)
	}
}

func TestWrapDetailComposition(t *testing.T) {
	tests := []struct {
		name      string
		component string
		operation string
		message   string
		want      string
	}{
		{"all parts", "comfy", "poll", "no result", "timeout: comfy: poll: no result"},
		{"component only", "comfy", "", "", "timeout: comfy"},
		{"empty", "", "", "", "timeout: service failure"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Wrap(ErrTimeout, tc.component, tc.operation, tc.message, nil)
			if err.Error() != tc.want {
				t.Errorf("Wrap() = %q, want %q", err.Error(), tc.want)
			}
		})
	}
}

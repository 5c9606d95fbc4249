package comfy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"faceless/internal/services"
	"faceless/internal/workflowgraph"
)

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/system_stats" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"system": {}}`))
	}))
	defer server.Close()

	if err := NewClient(server.URL, nil).Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestPingUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	err := NewClient(server.URL, nil).Ping(context.Background())
	if !errors.Is(err, services.ErrConnectivity) {
		t.Fatalf("err = %v, want ErrConnectivity", err)
	}
}

func TestLorasSorted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/object_info/LoraLoader" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"LoraLoader": {"input": {"required": {"lora_name": [["zeta.safetensors", "alpha.safetensors"], {}]}}}}`))
	}))
	defer server.Close()

	got := NewClient(server.URL, nil).Loras(context.Background())
	if len(got) != 2 || got[0] != "alpha.safetensors" || got[1] != "zeta.safetensors" {
		t.Errorf("Loras = %v, want sorted pair", got)
	}
}

func TestCatalogFailureReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	if got := client.Checkpoints(context.Background()); len(got) != 0 {
		t.Errorf("Checkpoints = %v, want empty on failure", got)
	}
}

func TestQueueBusy(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{name: "empty queue", body: `{"queue_running": [], "queue_pending": []}`, want: false},
		{name: "running prompt", body: `{"queue_running": [[0, "other-id"]], "queue_pending": []}`, want: true},
		{name: "pending only", body: `{"queue_running": [], "queue_pending": [[1, "queued-id"]]}`, want: true},
		{name: "legacy field names", body: `{"running": [[0, "x"]], "pending": []}`, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/queue" {
					t.Errorf("path = %q", r.URL.Path)
				}
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			if got := NewClient(server.URL, nil).QueueBusy(context.Background()); got != tt.want {
				t.Errorf("QueueBusy = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQueueBusyLookupFailureReadsIdle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	if NewClient(server.URL, nil).QueueBusy(context.Background()) {
		t.Error("QueueBusy = true on lookup failure, want false")
	}
}

func TestSubmitPrompt(t *testing.T) {
	var received struct {
		Prompt   map[string]any `json:"prompt"`
		ClientID string         `json:"client_id"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/prompt" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"prompt_id": "abc-123"}`))
	}))
	defer server.Close()

	graph := workflowgraph.Graph{"1": {ClassType: "KSampler", Inputs: map[string]any{"seed": 5}}}
	id, err := NewClient(server.URL, nil).SubmitPrompt(context.Background(), graph)
	if err != nil {
		t.Fatalf("SubmitPrompt: %v", err)
	}
	if id != "abc-123" {
		t.Errorf("prompt id = %q", id)
	}
	if received.ClientID == "" {
		t.Error("client_id missing from payload")
	}
	if _, ok := received.Prompt["1"]; !ok {
		t.Error("graph missing from payload")
	}
}

func TestWaitForHistoryReturnsEntry(t *testing.T) {
	var polls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 3 {
			w.Write([]byte(`{}`))
			return
		}
		w.Write([]byte(`{"p1": {"outputs": {"9": {"images": [{"filename": "out_0001.png", "subfolder": "", "type": "output"}]}}}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, WithTimings(time.Millisecond, time.Second, time.Second))
	entry, err := client.WaitForHistory(context.Background(), "p1")
	if err != nil {
		t.Fatalf("WaitForHistory: %v", err)
	}
	ref, err := client.ExtractFirstImage(entry)
	if err != nil {
		t.Fatalf("ExtractFirstImage: %v", err)
	}
	if ref.Filename != "out_0001.png" {
		t.Errorf("filename = %q", ref.Filename)
	}
}

func TestWaitForHistoryTimesOutWithEmptyQueue(t *testing.T) {
	var queueChecks atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/queue" {
			queueChecks.Add(1)
			w.Write([]byte(`{"queue_running": [], "queue_pending": []}`))
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, WithTimings(time.Millisecond, 20*time.Millisecond, time.Minute))
	start := time.Now()
	_, err := client.WaitForHistory(context.Background(), "p1")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if queueChecks.Load() != 1 {
		t.Errorf("queue checked %d times, want 1", queueChecks.Load())
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timed out after %v, extension must not apply on an empty queue", elapsed)
	}
}

func TestWaitForHistoryExtendsOnceWhileQueued(t *testing.T) {
	var queueChecks atomic.Int64
	ready := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/queue" {
			queueChecks.Add(1)
			w.Write([]byte(`{"queue_running": [[0, "p1"]], "queue_pending": []}`))
			close(ready)
			return
		}
		select {
		case <-ready:
			w.Write([]byte(`{"p1": {"outputs": {"9": {"images": [{"filename": "late.png"}]}}}}`))
		default:
			w.Write([]byte(`{}`))
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, WithTimings(time.Millisecond, 20*time.Millisecond, time.Minute))
	entry, err := client.WaitForHistory(context.Background(), "p1")
	if err != nil {
		t.Fatalf("WaitForHistory: %v", err)
	}
	if queueChecks.Load() != 1 {
		t.Errorf("queue checked %d times, want exactly 1", queueChecks.Load())
	}
	ref, err := client.ExtractFirstImage(entry)
	if err != nil {
		t.Fatalf("ExtractFirstImage: %v", err)
	}
	if ref.Type != "output" {
		t.Errorf("type = %q, want default output", ref.Type)
	}
}

func TestExtractFirstImageNoImages(t *testing.T) {
	_, err := NewClient("http://localhost", nil).ExtractFirstImage(&HistoryEntry{})
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("err = %v, want ErrExternalService", err)
	}
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/view" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("filename") != "out.png" || q.Get("subfolder") != "sub" || q.Get("type") != "output" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte("pngbytes"))
	}))
	defer server.Close()

	data, err := NewClient(server.URL, nil).Download(context.Background(), ImageRef{Filename: "out.png", Subfolder: "sub", Type: "output"})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != "pngbytes" {
		t.Errorf("data = %q", data)
	}
}

package ipc_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"faceless/internal/ipc"
	"faceless/internal/services/comfy"
	"faceless/internal/services/llm"
	"faceless/internal/session"
	"faceless/internal/workflowgraph"
)

type stubProvider struct{ reply string }

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	return s.reply, nil
}

type stubBackend struct{}

func (stubBackend) Ping(ctx context.Context) error { return nil }

func (stubBackend) QueueBusy(ctx context.Context) bool { return false }

func (stubBackend) SubmitPrompt(ctx context.Context, graph workflowgraph.Graph) (string, error) {
	return "p1", nil
}

func (stubBackend) WaitForHistory(ctx context.Context, promptID string) (*comfy.HistoryEntry, error) {
	return &comfy.HistoryEntry{Outputs: map[string]struct {
		Images []comfy.ImageRef `json:"images"`
	}{
		"9": {Images: []comfy.ImageRef{{Filename: "out.png", Type: "output"}}},
	}}, nil
}

func (stubBackend) ExtractFirstImage(entry *comfy.HistoryEntry) (comfy.ImageRef, error) {
	return entry.Outputs["9"].Images[0], nil
}

func (stubBackend) Download(ctx context.Context, ref comfy.ImageRef) ([]byte, error) {
	return []byte("png"), nil
}

func (stubBackend) Loras(ctx context.Context) []string       { return []string{"a.safetensors"} }
func (stubBackend) Checkpoints(ctx context.Context) []string { return []string{"base.safetensors"} }

const stubReply = "Hello.\n---SCENEPLAN---\n" +
	`{"reply":"Hello.","scene_append":"waving","mood":"happy","change_scene":true,"location":"park","visual_anchor":"sunny park"}`

func newServerAndClient(t *testing.T, stop func()) *ipc.Client {
	t.Helper()
	template, err := workflowgraph.Parse([]byte(`{
		"6": {"class_type": "CLIPTextEncode", "inputs": {"text": ""}, "_meta": {"title": "__PROMPT_POS__"}}
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sess, err := session.New(session.Options{
		Template:        template,
		Primary:         &stubProvider{reply: stubReply},
		Backend:         stubBackend{},
		RejectWhileBusy: true,
	})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}

	socket := filepath.Join(t.TempDir(), "faceless.sock")
	server, err := ipc.NewServer(context.Background(), socket, sess, ipc.ServerInfo{DBPath: "/tmp/db"}, stop, nil)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestStatusOverSocket(t *testing.T) {
	client := newServerAndClient(t, nil)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.Busy {
		t.Errorf("status = %+v", status)
	}
	if status.Provider != "stub" {
		t.Errorf("provider = %q", status.Provider)
	}
	if status.DBPath != "/tmp/db" {
		t.Errorf("db path = %q", status.DBPath)
	}
}

func TestChatOverSocket(t *testing.T) {
	client := newServerAndClient(t, nil)

	resp, err := client.Chat("hi")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Reply != "Hello." || resp.Location != "park" || !resp.ChangeScene {
		t.Errorf("resp = %+v", resp)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Location != "park" || status.HistoryLen != 1 {
		t.Errorf("post-chat status = %+v", status)
	}
}

func TestSetCharacterOverSocket(t *testing.T) {
	client := newServerAndClient(t, nil)

	resp, err := client.SetCharacter(ipc.SetCharacterRequest{
		VisualBase:      "silver hair",
		IdentityProfile: "a quiet librarian",
		LoraName:        "miko.safetensors",
		LoraStrength:    0.7,
	})
	if err != nil {
		t.Fatalf("SetCharacter: %v", err)
	}
	if !resp.Updated {
		t.Error("expected updated")
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.IdentityProfile != "a quiet librarian" {
		t.Errorf("identity = %q", status.IdentityProfile)
	}
}

func TestCatalogsOverSocket(t *testing.T) {
	client := newServerAndClient(t, nil)

	resp, err := client.Catalogs()
	if err != nil {
		t.Fatalf("Catalogs: %v", err)
	}
	if len(resp.Loras) != 1 || len(resp.Checkpoints) != 1 {
		t.Errorf("catalogs = %+v", resp)
	}
}

func TestStopOverSocket(t *testing.T) {
	stopped := make(chan struct{})
	client := newServerAndClient(t, func() { close(stopped) })

	resp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !resp.Stopped {
		t.Error("expected stopped ack")
	}
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop callback never fired")
	}
}

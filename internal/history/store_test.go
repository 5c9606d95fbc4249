package history_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"faceless/internal/config"
	"faceless/internal/history"
)

func newStore(t *testing.T) *history.Store {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = filepath.Join(cfg.Paths.DataDir, "logs")
	store, err := history.Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for i, user := range []string{"first", "second", "third"} {
		turn := &history.Turn{
			TurnID:       uuid.NewString(),
			Provider:     "ollama",
			UserText:     user,
			ReplyText:    "reply to " + user,
			SceneAppend:  "same scene",
			Mood:         "neutral",
			Location:     "cafe",
			VisualAnchor: "warm cafe, window light",
			ChangeScene:  i == 0,
			Seed:         int64(1000 + i),
		}
		if _, err := store.RecordTurn(ctx, turn); err != nil {
			t.Fatalf("RecordTurn: %v", err)
		}
		if turn.ID == 0 {
			t.Fatal("expected row id set")
		}
	}

	turns, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("len = %d, want 2", len(turns))
	}
	if turns[0].UserText != "second" || turns[1].UserText != "third" {
		t.Errorf("order = %q, %q; want chronological second, third", turns[0].UserText, turns[1].UserText)
	}
	if !turns[0].CreatedAt.Before(turns[1].CreatedAt) && !turns[0].CreatedAt.Equal(turns[1].CreatedAt) {
		t.Error("timestamps not chronological")
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Errorf("Count = %d, want 3", count)
	}
}

func TestRecordTurnRequiresID(t *testing.T) {
	store := newStore(t)
	if _, err := store.RecordTurn(context.Background(), &history.Turn{UserText: "x"}); err == nil {
		t.Fatal("expected error for missing turn id")
	}
}

func TestRecentZeroLimit(t *testing.T) {
	store := newStore(t)
	turns, err := store.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if turns != nil {
		t.Errorf("Recent(0) = %v, want nil", turns)
	}
}

func TestReopenKeepsData(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = filepath.Join(cfg.Paths.DataDir, "logs")

	store, err := history.Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	turn := &history.Turn{TurnID: uuid.NewString(), UserText: "hi", ReplyText: "hello"}
	if _, err := store.RecordTurn(context.Background(), turn); err != nil {
		t.Fatalf("RecordTurn: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := history.Open(&cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	turns, err := reopened.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(turns) != 1 || turns[0].UserText != "hi" {
		t.Fatalf("turns = %+v", turns)
	}
}

func TestSaveArtifact(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts")
	id := uuid.NewString()
	path, err := history.SaveArtifact(dir, id, []byte("pngbytes"))
	if err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}
	if filepath.Base(path) != id+".png" {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "pngbytes" {
		t.Errorf("read back = %q, %v", data, err)
	}
}

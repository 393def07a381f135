package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/eshu30/AI-Stockbot/internal/model/chat"
)

func TestDocPathLayout(t *testing.T) {
	got := DocPath("default-app-id", "user-1234")
	want := "artifacts/default-app-id/users/user-1234/stockbot_history/chat_doc"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func testStoreRoundTrip(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	path := DocPath("app", "user")

	if _, ok, err := store.Load(ctx, path); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	doc := Document{
		Messages: []chat.Message{
			{Role: chat.RoleSystem, Content: "instruction"},
			{Role: chat.RoleUser, Content: "hello"},
		},
		LastUpdated: time.Now().UTC(),
	}
	if err := store.Save(ctx, path, doc); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, ok, err := store.Load(ctx, path)
	if err != nil || !ok {
		t.Fatalf("expected document, got ok=%v err=%v", ok, err)
	}
	if len(loaded.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(loaded.Messages))
	}
	if loaded.Messages[1].Content != "hello" {
		t.Fatalf("unexpected content %q", loaded.Messages[1].Content)
	}

	doc.Messages = append(doc.Messages, chat.Message{Role: chat.RoleAssistant, Content: "hi"})
	if err := store.Save(ctx, path, doc); err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	loaded, _, err = store.Load(ctx, path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if len(loaded.Messages) != 3 {
		t.Fatalf("expected overwrite with 3 messages, got %d", len(loaded.Messages))
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	testStoreRoundTrip(t, NewMemoryStore())
}

func TestMemoryStoreCopiesMessages(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	msgs := []chat.Message{{Role: chat.RoleUser, Content: "original"}}
	if err := store.Save(ctx, "p", Document{Messages: msgs}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	msgs[0].Content = "mutated"

	loaded, ok, err := store.Load(ctx, "p")
	if err != nil || !ok {
		t.Fatalf("expected document, got ok=%v err=%v", ok, err)
	}
	if loaded.Messages[0].Content != "original" {
		t.Fatalf("store aliased the caller slice: %q", loaded.Messages[0].Content)
	}
}

func TestBoltStoreRoundTrip(t *testing.T) {
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open bolt store: %v", err)
	}
	defer store.Close()

	testStoreRoundTrip(t, store)
}

func TestBoltStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()
	docPath := DocPath("app", "user")

	store, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("open bolt store: %v", err)
	}
	doc := Document{
		Messages:    []chat.Message{{Role: chat.RoleUser, Content: "persisted"}},
		LastUpdated: time.Now().UTC(),
	}
	if err := store.Save(ctx, docPath, doc); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	reopened, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("reopen bolt store: %v", err)
	}
	defer reopened.Close()

	loaded, ok, err := reopened.Load(ctx, docPath)
	if err != nil || !ok {
		t.Fatalf("expected persisted document, got ok=%v err=%v", ok, err)
	}
	if loaded.Messages[0].Content != "persisted" {
		t.Fatalf("unexpected content %q", loaded.Messages[0].Content)
	}
}

package history

import (
	"context"
	"sync"

	"github.com/eshu30/AI-Stockbot/internal/model/chat"
)

// MemoryStore implements Store with a process-local map. Histories
// vanish on restart; this is the fallback when no durable backend is
// configured or reachable.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

// Load returns a copy of the stored document for path.
func (s *MemoryStore) Load(_ context.Context, path string) (Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[path]
	if !ok {
		return Document{}, false, nil
	}
	doc.Messages = append([]chat.Message(nil), doc.Messages...)
	return doc, true, nil
}

// Save stores a copy of doc under path, replacing any previous document.
func (s *MemoryStore) Save(_ context.Context, path string, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc.Messages = append([]chat.Message(nil), doc.Messages...)
	s.docs[path] = doc
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

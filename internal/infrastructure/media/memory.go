package media

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// MemoryStore keeps objects in a map. Used by tests and DB_DRIVER=memory runs.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string][]byte
	// FailSave makes every Save fail, for exercising error paths.
	FailSave error
}

func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "http://media.local"
	}
	return &MemoryStore{baseURL: baseURL, objects: make(map[string][]byte)}
}

func (s *MemoryStore) Save(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if s.FailSave != nil {
		return "", s.FailSave
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.objects[key] = buf.Bytes()
	s.mu.Unlock()
	return joinURL(s.baseURL, key), nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) KeyFromURL(rawURL string) string {
	return ObjectKeyFromURL(s.baseURL, rawURL)
}

// Has reports whether key is stored. Useful for tests.
func (s *MemoryStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok
}

// Len is the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

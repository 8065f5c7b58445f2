package persistence

import (
	"context"
	"sync"

	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
)

// MemoryStore keeps the vibe in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	value    vibe.Vibe
	set      bool
	disabled bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Disabled returns a store that behaves like unavailable storage: writes are
// dropped and loads always report absent.
func Disabled() *MemoryStore {
	return &MemoryStore{disabled: true}
}

// Save records v.
func (s *MemoryStore) Save(_ context.Context, v vibe.Vibe) error {
	if s.disabled {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = v
	s.set = true
	return nil
}

// Load returns the recorded vibe.
func (s *MemoryStore) Load(_ context.Context) (vibe.Vibe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.set
}

// Clear forgets the recorded vibe.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = vibe.Vibe{}
	s.set = false
	return nil
}

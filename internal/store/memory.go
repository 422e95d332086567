package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests and ephemeral sessions.
type MemoryStore struct {
	mu    sync.RWMutex
	data  Data
	saves int

	// LoadErr and SaveErr, when set, are returned by Load and Save.
	LoadErr error
	SaveErr error
}

// NewMemoryStore creates a store seeded with data.
func NewMemoryStore(data Data) *MemoryStore {
	return &MemoryStore{data: data.Clone()}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context) (Data, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LoadErr != nil {
		return Data{}, s.LoadErr
	}
	return s.data.Clone(), nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, data Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.data = data.Clone()
	s.saves++
	return nil
}

// Saves returns how many successful saves happened.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

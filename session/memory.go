package session

import (
	"context"
	"sync"
)

// MemoryStore keeps credentials in memory. The zero value is ready to use.
type MemoryStore struct {
	mu  sync.RWMutex
	rec Credentials
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context, kind Kind) (string, error) {
	if err := checkKind(kind); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.get(kind), nil
}

func (s *MemoryStore) Set(_ context.Context, kind Kind, value string) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.set(kind, value)
	return nil
}

func (s *MemoryStore) Replace(_ context.Context, creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = creds
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = Credentials{}
	return nil
}

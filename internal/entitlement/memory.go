package entitlement

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]struct{})}
}

func (s *MemoryStore) Grant(ctx context.Context, identity string) error {
	if identity == "" {
		return ErrEmptyIdentity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[identity] = struct{}{}
	return nil
}

func (s *MemoryStore) HasAccess(ctx context.Context, identity string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[identity]
	return ok, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

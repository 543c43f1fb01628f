package profile

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu       sync.Mutex
	profiles map[string]Profile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]Profile)}
}

func (s *MemoryStore) Add(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

func (s *MemoryStore) RoleOf(ctx context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return "", ErrNotFound
	}
	return p.Role, nil
}

func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.TrimSpace(strings.ToLower(email))
	for _, p := range s.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return Profile{}, ErrNotFound
}

func (s *MemoryStore) SetRole(ctx context.Context, userID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	p.Role = role
	s.profiles[userID] = p
	return nil
}

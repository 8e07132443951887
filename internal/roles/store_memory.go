package roles

import (
	"context"
	"sync"
)

// InMemoryStore is a profile store for tests and local development. It
// counts reads so callers can assert that nothing caches lookups.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]string
	reads    int
	err      error
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[string]string)}
}

// Set plays the external administrator changing a profile.
func (s *InMemoryStore) Set(subjectID string, role Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[subjectID] = string(role)
}

// SetRaw stores an arbitrary role string, including invalid ones.
func (s *InMemoryStore) SetRaw(subjectID, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[subjectID] = role
}

func (s *InMemoryStore) Remove(subjectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, subjectID)
}

// FailWith makes every subsequent read fail with err (nil restores).
func (s *InMemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *InMemoryStore) Reads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reads
}

func (s *InMemoryStore) FindRole(_ context.Context, subjectID string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.err != nil {
		return "", "", s.err
	}
	role, ok := s.profiles[subjectID]
	if !ok {
		return "", "", ErrNotFound
	}
	return subjectID, role, nil
}

package kv

import (
	"regexp"
	"sync"
)

// in-process Store, used by tests and the ephemeral serve mode
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *MemoryStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *MemoryStore) KeysMatching(pattern *regexp.Regexp) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return matchingKeys(s.data, pattern), nil
}

func (s *MemoryStore) ValuesMatching(pattern *regexp.Regexp) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := matchingKeys(s.data, pattern)
	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, s.data[k])
	}
	return values, nil
}

// Len is the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

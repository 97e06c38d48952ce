package preferences

import (
	"fmt"
	"sync"
)

// MemoryStore keeps preferences in process memory. Nothing survives a
// restart.
type MemoryStore struct {
	values map[uint32][]byte
	mutex  sync.RWMutex
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[uint32][]byte),
	}
}

func (s *MemoryStore) MakePreference(key uint32) Preference {
	return &preference{key: key, backend: s}
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.values)
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) get(key uint32) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	data, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %08x", ErrNotFound, key)
	}
	return data, nil
}

func (s *MemoryStore) put(key uint32, data []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.values[key] = append([]byte(nil), data...)
	return nil
}

package container

import (
	"sync"
)

// Store keeps the last container received from the network, keyed by container id.
type Store interface {
	Load(id string) ([]byte, error)
	Save(id string, data []byte) error
	Close() error
}

type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (s *MemStore) Load(id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *MemStore) Save(id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := make([]byte, len(data))
	copy(v, data)
	s.data[id] = v
	return nil
}

func (s *MemStore) Close() error {
	return nil
}

package snapshot

import (
	"context"
	"sort"
	"sync"
)

// Store persists snapshot trees by identity. Load reports false when no
// snapshot has been recorded for id.
type Store interface {
	Load(ctx context.Context, id string) (any, bool, error)
	Save(ctx context.Context, id string, tree any) error
	Delete(ctx context.Context, id string) error
	Keys(ctx context.Context) ([]string, error)
}

// MemoryStore keeps snapshots for the lifetime of the process. Trees are
// held encoded so a loaded snapshot reads the same as one from disk.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, id string) (any, bool, error) {
	s.mu.RLock()
	data, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	tree, err := Decode(data)
	if err != nil {
		return nil, false, err
	}
	return tree, true, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, tree any) error {
	data, err := Encode(tree)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[id] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.data, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

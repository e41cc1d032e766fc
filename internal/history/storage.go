package history

import (
	"context"
	"slices"
	"sync"
)

// Storage is the key-value medium history is persisted to.
// Get reports whether the key exists; absence is not an error.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// MemoryStorage keeps values in a map. Useful for tests and ephemeral sessions.
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: map[string][]byte{}}
}

func (m *MemoryStorage) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

func (m *MemoryStorage) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = slices.Clone(value)
	return nil
}

var _ Storage = (*MemoryStorage)(nil)

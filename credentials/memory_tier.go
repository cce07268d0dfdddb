package credentials

import (
	"sync"

	"github.com/jrsteele09/go-schooltracker-client/internal/errors"
)

// MemoryTier is the session-scoped tier: values live for the process lifetime.
type MemoryTier struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Tier = (*MemoryTier)(nil)

func NewMemoryTier() *MemoryTier {
	return &MemoryTier{values: make(map[string]string)}
}

func (m *MemoryTier) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", errors.ErrNotFound
	}
	return v, nil
}

func (m *MemoryTier) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryTier) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; !ok {
		return errors.ErrNotFound
	}
	delete(m.values, key)
	return nil
}

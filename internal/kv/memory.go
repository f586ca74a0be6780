package kv

import (
	"context"
	"sync"
)

// Memory is an in-process Store. It is the default backend: the reference
// behavior keeps this data on the device, so process-local storage with no
// durability across restarts is acceptable.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Get returns the value stored under key, if any.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, true, nil
}

// Set stores value under key, replacing any previous value.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	copied := make([]byte, len(value))
	copy(copied, value)
	m.mu.Lock()
	m.data[key] = copied
	m.mu.Unlock()
	return nil
}

// Delete removes the value stored under key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

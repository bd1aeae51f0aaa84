package cache

import (
	"context"
	"sync"
)

// Memory is an in-process Cache backed by a mutex-guarded map.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]any),
	}
}

func (m *Memory) Get(_ context.Context, key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.entries[key]

	return value, ok
}

func (m *Memory) Set(_ context.Context, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = value
}

func (m *Memory) Delete(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
}

func (m *Memory) Clear(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]any)
}

// Package submitguard keeps at most one booking submission in flight per key.
// The in-memory guard covers a single widget process; the Redis guard shares
// the lock across replicas.
package submitguard

import (
	"context"
	"errors"
	"sync"
)

// ErrHeld is returned when another submission already holds the key.
var ErrHeld = errors.New("submission already in flight")

// Release frees a held key. It is safe to call more than once.
type Release = func()

// Memory is a process-local guard.
type Memory struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemory returns an empty process-local guard.
func NewMemory() *Memory {
	return &Memory{held: make(map[string]struct{})}
}

// Acquire claims key or returns ErrHeld.
func (m *Memory) Acquire(_ context.Context, key string) (Release, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[key]; ok {
		return nil, ErrHeld
	}
	m.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.held, key)
			m.mu.Unlock()
		})
	}, nil
}

// Held reports whether key is currently claimed.
func (m *Memory) Held(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.held[key]
	return ok
}

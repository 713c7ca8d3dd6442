package session

import (
	"context"
	"sync"

	"github.com/medrex/portal-gate/pkg/types"
)

// MemoryBackend keeps sessions in process memory
type MemoryBackend struct {
	mu       sync.Mutex
	profiles map[string]*MemoryStore
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{profiles: make(map[string]*MemoryStore)}
}

// ForProfile returns the store for profileID, creating it on first use
func (b *MemoryBackend) ForProfile(profileID string) Store {
	b.mu.Lock()
	defer b.mu.Unlock()

	store, ok := b.profiles[profileID]
	if !ok {
		store = NewMemoryStore()
		b.profiles[profileID] = store
	}
	return store
}

// Ping always succeeds
func (b *MemoryBackend) Ping(context.Context) error {
	return nil
}

// MemoryStore is a Store over a guarded field map
type MemoryStore struct {
	mu     sync.RWMutex
	fields map[string]string
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{fields: make(map[string]string)}
}

// Read returns the session or nil if absent
func (m *MemoryStore) Read(context.Context) (*types.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return decode(m.fields), nil
}

// Write replaces all fields at once
func (m *MemoryStore) Write(_ context.Context, s types.Session) error {
	fields, err := prepare(s)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.fields = fields
	m.mu.Unlock()
	return nil
}

// Clear removes all fields at once
func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	m.fields = make(map[string]string)
	m.mu.Unlock()
	return nil
}

// SetField writes a single raw field. It exists to seed partial state in tests and tools.
func (m *MemoryStore) SetField(name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields[name] = value
}

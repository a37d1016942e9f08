package sdk

import (
	"errors"
	"sync"
)

// ErrNotFound is returned by KeyValueStore.Get when the key has no value.
var ErrNotFound = errors.New("key not found")

// KeyValueStore is the persistence backend for session, tab and layout state.
// Values are opaque strings; structured values are stored as JSON.
type KeyValueStore interface {
	// Get returns the stored value, or ErrNotFound when the key is absent.
	Get(key string) (string, error)
	Set(key, value string) error
	// Delete removes the key. Deleting an absent key is not an error.
	Delete(key string) error
}

// MemoryStore is a process-local KeyValueStore. It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// Ensure MemoryStore implements KeyValueStore at compile time.
var _ KeyValueStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Get returns the value stored under key.
func (m *MemoryStore) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Delete removes key.
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

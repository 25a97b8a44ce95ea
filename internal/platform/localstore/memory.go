package localstore

import (
	"sync"
)

// MemoryBackend keeps documents in a map
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte

	// FailWrites makes Put return an error, for exercising fail-soft paths
	FailWrites error
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

// Get returns a copy of the stored value
func (b *MemoryBackend) Get(key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	raw, ok := b.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), raw...), nil
}

// Put stores a copy of value
func (b *MemoryBackend) Put(key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.FailWrites != nil {
		return b.FailWrites
	}
	b.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key
func (b *MemoryBackend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.data[key]; !ok {
		return ErrKeyNotFound
	}
	delete(b.data, key)
	return nil
}

// Close is a no-op
func (b *MemoryBackend) Close() error {
	return nil
}

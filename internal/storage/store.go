// Package storage provides the narrow document store the agent checkpoints
// through. Checkpointing is off the hot path: every write failure is
// loggable and survivable.
package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound indicates no document exists under the requested key.
var ErrNotFound = errors.New("document not found")

// Store is a key/value-document interface. Values are opaque JSON blobs.
type Store interface {
	Upsert(ctx context.Context, key string, doc []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Close() error
}

// MemoryStore is an in-process Store used by tests and dry runs.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (m *MemoryStore) Upsert(ctx context.Context, key string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(doc))
	copy(cp, doc)
	m.docs[key] = cp
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(doc))
	copy(cp, doc)
	return cp, nil
}

func (m *MemoryStore) Close() error { return nil }

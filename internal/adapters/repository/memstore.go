package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemStore implements DocStore in process memory. Documents are held as
// encoded JSON so readers always get an independent copy.
type MemStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemStore creates an empty in-memory document store.
func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string][]byte)}
}

// Get decodes the document at key into into.
func (m *MemStore) Get(ctx context.Context, key string, into any) (bool, error) {
	m.mu.RLock()
	raw, ok := m.docs[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return false, fmt.Errorf("%w: key %q: %w", ErrDecode, key, err)
	}
	return true, nil
}

// Set encodes v and stores it at key.
func (m *MemStore) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: key %q: %w", ErrEncode, key, err)
	}
	m.mu.Lock()
	m.docs[key] = raw
	m.mu.Unlock()
	return nil
}

// Delete removes the document at key.
func (m *MemStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.docs, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored documents.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

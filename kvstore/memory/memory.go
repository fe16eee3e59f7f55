// Package memory provides an in-memory kvstore.Store for testing.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kensei/kintai-engine/kvstore"
)

// Store is an in-memory implementation of kvstore.Store.
type Store struct {
	mu     sync.RWMutex
	values map[string][]byte
	sets   map[string]map[string]bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		values: make(map[string][]byte),
		sets:   make(map[string]map[string]bool),
	}
}

func (m *Store) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return nil, kvstore.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *Store) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	m.values[key] = v
	return nil
}

func (m *Store) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

func (m *Store) SAdd(_ context.Context, set, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sets[set] == nil {
		m.sets[set] = make(map[string]bool)
	}
	m.sets[set][member] = true
	return nil
}

func (m *Store) SRem(_ context.Context, set, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sets[set], member)
	return nil
}

func (m *Store) SMembers(_ context.Context, set string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var members []string
	for member := range m.sets[set] {
		members = append(members, member)
	}
	// Deterministic order for tests.
	sort.Strings(members)
	return members, nil
}

func (m *Store) Close() error {
	return nil
}

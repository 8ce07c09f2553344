package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/hamed0406/checkwatch/internal/repo"
)

// Store keeps records as encoded JSON so reads hand out independent copies
// with the same number types a file or database adapter would produce.
type Store struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

func New() *Store {
	return &Store{data: make(map[string]map[string][]byte)}
}

func (m *Store) List(ctx context.Context, collection string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.data[collection]))
	for id := range m.data[collection] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Store) Read(ctx context.Context, collection, id string) (repo.Record, error) {
	m.mu.RLock()
	b, ok := m.data[collection][id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, repo.ErrNotFound)
	}
	var rec repo.Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return rec, nil
}

func (m *Store) Create(ctx context.Context, collection, id string, rec repo.Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[collection][id]; ok {
		return fmt.Errorf("%s/%s: %w", collection, id, repo.ErrExists)
	}
	if m.data[collection] == nil {
		m.data[collection] = make(map[string][]byte)
	}
	m.data[collection][id] = b
	return nil
}

func (m *Store) Update(ctx context.Context, collection, id string, rec repo.Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[collection][id]; !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, repo.ErrNotFound)
	}
	m.data[collection][id] = b
	return nil
}

func (m *Store) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[collection][id]; !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, repo.ErrNotFound)
	}
	delete(m.data[collection], id)
	return nil
}

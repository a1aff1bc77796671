package profilestore

import (
	"context"
	"maps"
	"time"

	"github.com/kailas-cloud/b2bsearch/internal/db"
)

// memStore is an in-memory store with hooks for failure injection.
type memStore struct {
	hashes  map[string]map[string]string
	strings map[string][]byte
	expired map[string]time.Duration
	ops     []string

	hsetErr error
	setErr  error
}

func newMemStore() *memStore {
	return &memStore{
		hashes:  map[string]map[string]string{},
		strings: map[string][]byte{},
		expired: map[string]time.Duration{},
	}
}

func (m *memStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	m.ops = append(m.ops, "HSET")
	if m.hsetErr != nil {
		return m.hsetErr
	}
	for _, it := range items {
		if len(it.Fields) == 0 {
			continue
		}
		h := m.hashes[it.Key]
		if h == nil {
			h = map[string]string{}
			m.hashes[it.Key] = h
		}
		maps.Copy(h, it.Fields)
	}
	return nil
}

func (m *memStore) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = maps.Clone(m.hashes[k])
		if out[i] == nil {
			out[i] = map[string]string{}
		}
	}
	return out, nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.strings[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.ops = append(m.ops, "SET")
	if m.setErr != nil {
		return m.setErr
	}
	m.strings[key] = value
	return nil
}

func (m *memStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.expired[key] = ttl
	return nil
}

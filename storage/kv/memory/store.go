// Package memory is a process-local kv.Store.
package memory

import (
	"context"
	"sync"

	"github.com/trezcool/eduverse/storage/kv"
)

type Store struct {
	sync.RWMutex
	table map[string][]byte
}

var (
	_ kv.Store   = (*Store)(nil) // interface compliance check
	_ kv.Batcher = (*Store)(nil)
)

func Open() *Store {
	return &Store{table: make(map[string][]byte)}
}

func clone(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

func (s *Store) Read(_ context.Context, key string) ([]byte, error) {
	s.RLock()
	defer s.RUnlock()

	if data, ok := s.table[key]; ok {
		return clone(data), nil
	}
	return nil, kv.ErrKeyNotFound
}

func (s *Store) Write(_ context.Context, key string, value []byte) error {
	s.Lock()
	defer s.Unlock()

	s.table[key] = clone(value)
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.Lock()
	defer s.Unlock()

	delete(s.table, key)
	return nil
}

func (s *Store) Keys(_ context.Context) ([]string, error) {
	s.RLock()
	defer s.RUnlock()

	keys := make([]string, 0, len(s.table))
	for key := range s.table {
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *Store) Clear(_ context.Context) error {
	s.Lock()
	defer s.Unlock()

	s.table = make(map[string][]byte)
	return nil
}

func (s *Store) Replace(_ context.Context, entries map[string][]byte) error {
	table := make(map[string][]byte, len(entries))
	for key, data := range entries {
		table[key] = clone(data)
	}

	s.Lock()
	defer s.Unlock()
	s.table = table
	return nil
}

func (s *Store) Close() error { return nil }

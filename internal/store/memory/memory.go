// Package memory is an in-process KV used for tests and DATA_BACKEND=memory.
package memory

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"expenses/internal/store"
)

type Store struct {
	mu    sync.Mutex
	items map[string][]byte
	hub   *store.Hub
}

func New() *Store {
	return &Store{items: make(map[string][]byte), hub: store.NewHub()}
}

// NewFromDir seeds the store from <key>.json files in base. Missing files are ignored.
func NewFromDir(base string) *Store {
	s := New()
	for _, key := range []string{store.KeyExpenses, store.KeyProfile, store.KeyTheme} {
		b, err := os.ReadFile(filepath.Join(base, key+".json"))
		if err != nil || len(b) == 0 {
			continue
		}
		s.items[key] = b
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	s.items[key] = append([]byte(nil), value...)
	s.mu.Unlock()

	s.hub.Notify(key, value)
	return nil
}

func (s *Store) Subscribe(key string, fn func([]byte)) func() {
	return s.hub.Subscribe(key, fn)
}

func (s *Store) Ping(context.Context) error { return nil }

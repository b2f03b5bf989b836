// Package memory is a process-local kv.Store used for development and tests.
package memory

import (
	"context"
	"sync"

	"myfinance/internal/kv"
)

var _ kv.Store = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	items  map[string][]byte
	closed bool
}

func New() *Store {
	return &Store{items: map[string][]byte{}}
}

// Seed stores raw values, bypassing context checks. Useful to load fixtures.
func (s *Store) Seed(values map[string][]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.items[k] = append([]byte(nil), v...)
	}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, kv.ErrClosed
	}
	v, ok := s.items[key]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return kv.ErrClosed
	}
	s.items[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Remove(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return kv.ErrClosed
	}
	for _, k := range keys {
		delete(s.items, k)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

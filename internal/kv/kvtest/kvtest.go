// Package kvtest holds the behaviour every kv.Store implementation shares.
package kvtest

import (
	"context"
	"errors"
	"testing"

	"myfinance/internal/kv"
)

// Run exercises open, get, set, remove and close against a fresh store.
func Run(t *testing.T, open func(t *testing.T) kv.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		if _, err := s.Get(ctx, "absent"); !errors.Is(err, kv.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("set then get", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		if err := s.Set(ctx, "k", []byte(`[1,2]`)); err != nil {
			t.Fatalf("set: %v", err)
		}
		if err := s.Set(ctx, "k", []byte(`[3]`)); err != nil {
			t.Fatalf("overwrite: %v", err)
		}
		got, err := s.Get(ctx, "k")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if string(got) != `[3]` {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("returned value is a copy", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		in := []byte("abc")
		_ = s.Set(ctx, "k", in)
		in[0] = 'x'
		got, _ := s.Get(ctx, "k")
		got[1] = 'y'
		again, _ := s.Get(ctx, "k")
		if string(again) != "abc" {
			t.Fatalf("store shares memory with callers: %q", again)
		}
	})

	t.Run("remove", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		_ = s.Set(ctx, "a", []byte("1"))
		_ = s.Set(ctx, "b", []byte("2"))
		_ = s.Set(ctx, "c", []byte("3"))
		if err := s.Remove(ctx, "a", "b", "never-set"); err != nil {
			t.Fatalf("remove: %v", err)
		}
		if _, err := s.Get(ctx, "a"); !errors.Is(err, kv.ErrNotFound) {
			t.Fatalf("a should be gone, got %v", err)
		}
		if _, err := s.Get(ctx, "c"); err != nil {
			t.Fatalf("c should survive: %v", err)
		}
		if err := s.Remove(ctx); err != nil {
			t.Fatalf("empty remove: %v", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		s := open(t)
		defer s.Close()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if err := s.Set(cctx, "k", []byte("v")); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("closed store", func(t *testing.T) {
		s := open(t)
		if err := s.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		if err := s.Set(ctx, "k", []byte("v")); !errors.Is(err, kv.ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	})
}

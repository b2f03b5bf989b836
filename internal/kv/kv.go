// Package kv defines the durable key-value contract the persistence gateway
// writes its collections to. Each key holds one opaque blob.
package kv

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key holds no value.
	ErrNotFound = errors.New("kv: key not found")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("kv: store closed")
)

// Store is a durable map from string keys to byte blobs.
// Set replaces the whole value atomically.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, keys ...string) error
	Close() error
}

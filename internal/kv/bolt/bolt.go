// Package bolt stores kv blobs in a single bbolt bucket.
package bolt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"

	"myfinance/internal/kv"
)

// Bucket holds every key of the application.
const Bucket = "myfinance"

var _ kv.Store = (*Store)(nil)

// Store represents the bbolt database wrapper.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the database file and its bucket. The file lock is
// exclusive, so a second process opening the same path fails after a second.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(Bucket)); err != nil {
			return fmt.Errorf("create bucket %s: %w", Bucket, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Get retrieves the blob stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(Bucket)).Get([]byte(key))
		if data == nil {
			return kv.ErrNotFound
		}
		// Copy the value since it's only valid during the transaction.
		value = append([]byte(nil), data...)
		return nil
	})
	return value, translate(err)
}

// Set replaces the blob stored under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(Bucket)).Put([]byte(key), value)
	})
	return translate(err)
}

// Remove deletes keys in one transaction. Missing keys are ignored.
func (s *Store) Remove(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(Bucket))
		for _, k := range keys {
			if err := b.Delete([]byte(k)); err != nil {
				return fmt.Errorf("delete %s: %w", k, err)
			}
		}
		return nil
	})
	return translate(err)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func translate(err error) error {
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return kv.ErrClosed
	}
	return err
}

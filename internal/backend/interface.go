package backend

import (
	"context"

	"myfinance/internal/kv"
	"myfinance/internal/storage"
)

// CleanupFunc releases the resources of a backend.
type CleanupFunc func() error

// BackendResult contains the gateway and the resources behind it.
type BackendResult struct {
	Gateway  *storage.Gateway
	Store    kv.Store
	Notifier storage.Notifier // nil when AMQP is disabled or unreachable
	Cleanup  CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	BoltDBPath   string
	SQLiteDBPath string

	// Optional change notifications
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	BoltBackend   BackendType = "bolt"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, BoltBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

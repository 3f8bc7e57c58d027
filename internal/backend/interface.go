package backend

import (
	"context"

	"fincontrol/internal/storage"
	"fincontrol/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the opened store and whatever must be released with it.
type BackendResult struct {
	Store *store.Store
	// Publishing reports whether store changes are sent to the broker.
	Publishing bool
	Cleanup    CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend opens the storage medium, loads the record store and
	// attaches the change publisher when one is configured.
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// OpenKV opens only the storage medium.
	OpenKV(config Config) (storage.KV, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Size limit of the stored document; 0 means unlimited.
	QuotaBytes int

	// File specific
	DataDirectory string

	// SQLite specific
	SQLiteDBPath string

	// Optional change publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	Locale string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

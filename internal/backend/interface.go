// Package backend selects and opens the datastore once at startup. The
// resulting storage.Store is passed explicitly to everything that needs it.
package backend

import (
	"context"

	"bizdash/internal/storage"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

type BackendResult struct {
	Store   storage.Store
	Cleanup CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

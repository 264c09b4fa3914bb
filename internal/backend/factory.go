package backend

import (
	"context"
	"fmt"

	"bizdash/internal/log"
	"bizdash/internal/storage/memory"
	"bizdash/internal/storage/postgres"
	"bizdash/internal/storage/sqlite"
)

type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		store, err := sqlite.NewStore(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &BackendResult{Store: store, Cleanup: store.Close}, nil

	case PostgresBackend:
		store, err := postgres.NewStore(config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
		return &BackendResult{Store: store, Cleanup: store.Close}, nil

	case MemoryBackend:
		store, err := memory.NewSeededStore(ctx, config.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize memory store: %w", err)
		}
		f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)
		return &BackendResult{Store: store, Cleanup: store.Close}, nil
	}
	return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
}

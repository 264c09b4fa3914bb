package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"bizdash/internal/core"
	"bizdash/internal/storage"
	"bizdash/internal/storage/storagetest"
)

func TestSQLiteStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		s, err := NewStore(filepath.Join(t.TempDir(), "data", "bizdash.db"))
		if err != nil {
			t.Fatalf("open store: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bizdash.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second run: %v", err)
	}
}

func TestDataSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bizdash.db")

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Users().Put(ctx, core.User{ID: "u1", Name: "Ana"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	s.Close()

	s, err = NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	u, err := s.Users().Get(ctx, "u1")
	if err != nil || u.Name != "Ana" {
		t.Fatalf("expected persisted user, got %+v err=%v", u, err)
	}
}

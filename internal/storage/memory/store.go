// Package memory keeps documents in process memory, optionally seeded from a
// YAML file. Used for tests, demos and single-process runs.
package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"bizdash/internal/core"
	"bizdash/internal/storage"

	"gopkg.in/yaml.v3"
)

type Backend struct {
	mu   sync.RWMutex
	docs map[string][]storage.Document
}

func NewBackend() *Backend {
	return &Backend{docs: make(map[string][]storage.Document)}
}

// NewStore returns an empty in-memory store.
func NewStore() storage.Store {
	return storage.NewDocumentStore(NewBackend())
}

// Seed is the layout of a YAML seed file.
type Seed struct {
	Users    []core.User    `yaml:"users"`
	Clients  []core.Client  `yaml:"clients"`
	Payments []core.Payment `yaml:"payments"`
	Projects []core.Project `yaml:"projects"`
	Goals    []core.Goal    `yaml:"goals"`
	Tasks    []core.Task    `yaml:"tasks"`
}

// NewSeededStore loads path into a fresh store. A missing file yields an
// empty store.
func NewSeededStore(ctx context.Context, path string) (storage.Store, error) {
	b := NewBackend()
	if path == "" {
		return storage.NewDocumentStore(b), nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return storage.NewDocumentStore(b), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if err := seed.load(ctx, b); err != nil {
		return nil, err
	}
	return storage.NewDocumentStore(b), nil
}

func (s Seed) load(ctx context.Context, b *Backend) error {
	if err := putAll(ctx, b, storage.Users, s.Users); err != nil {
		return err
	}
	if err := putAll(ctx, b, storage.Clients, s.Clients); err != nil {
		return err
	}
	if err := putAll(ctx, b, storage.Payments, s.Payments); err != nil {
		return err
	}
	if err := putAll(ctx, b, storage.Projects, s.Projects); err != nil {
		return err
	}
	if err := putAll(ctx, b, storage.Goals, s.Goals); err != nil {
		return err
	}
	return putAll(ctx, b, storage.Tasks, s.Tasks)
}

func putAll[T core.Record](ctx context.Context, b *Backend, name string, items []T) error {
	for _, item := range items {
		doc, err := storage.Encode(name, item)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		if err := b.PutDocument(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) Close() error { return nil }

func (b *Backend) GetDocument(_ context.Context, collection, id string) (storage.Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i := b.indexOf(collection, id); i >= 0 {
		return clone(b.docs[collection][i]), nil
	}
	return storage.Document{}, storage.NotFound(collection, id)
}

func (b *Backend) ListDocuments(_ context.Context, collection string) ([]storage.Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]storage.Document, 0, len(b.docs[collection]))
	for _, d := range b.docs[collection] {
		out = append(out, clone(d))
	}
	return out, nil
}

func (b *Backend) PutDocument(_ context.Context, doc storage.Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	doc = clone(doc)
	if i := b.indexOf(doc.Collection, doc.ID); i >= 0 {
		b.docs[doc.Collection][i] = doc
		return nil
	}
	b.docs[doc.Collection] = append(b.docs[doc.Collection], doc)
	return nil
}

func (b *Backend) DeleteDocument(_ context.Context, collection, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOf(collection, id)
	if i < 0 {
		return storage.NotFound(collection, id)
	}
	docs := b.docs[collection]
	b.docs[collection] = append(docs[:i:i], docs[i+1:]...)
	return nil
}

func (b *Backend) FindDocuments(_ context.Context, collection, clientID, dueDatePrefix string) ([]storage.Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []storage.Document
	for _, d := range b.docs[collection] {
		if d.ClientID == clientID && strings.HasPrefix(d.DueDate, dueDatePrefix) {
			out = append(out, clone(d))
		}
	}
	return out, nil
}

// indexOf must be called with the lock held.
func (b *Backend) indexOf(collection, id string) int {
	for i, d := range b.docs[collection] {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func clone(d storage.Document) storage.Document {
	d.Body = append([]byte(nil), d.Body...)
	return d
}

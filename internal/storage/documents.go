package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"bizdash/internal/core"
)

type documentStore struct {
	backend DocumentBackend
}

// NewDocumentStore exposes a DocumentBackend through the typed Store ports.
func NewDocumentStore(backend DocumentBackend) Store {
	return &documentStore{backend: backend}
}

func (s *documentStore) Clients() Collection[core.Client] {
	return &collection[core.Client]{backend: s.backend, name: Clients}
}

func (s *documentStore) Payments() PaymentStore {
	return &paymentCollection{collection[core.Payment]{backend: s.backend, name: Payments}}
}

func (s *documentStore) Projects() Collection[core.Project] {
	return &collection[core.Project]{backend: s.backend, name: Projects}
}

func (s *documentStore) Goals() Collection[core.Goal] {
	return &collection[core.Goal]{backend: s.backend, name: Goals}
}

func (s *documentStore) Tasks() Collection[core.Task] {
	return &collection[core.Task]{backend: s.backend, name: Tasks}
}

func (s *documentStore) Users() Collection[core.User] {
	return &collection[core.User]{backend: s.backend, name: Users}
}

func (s *documentStore) Close() error {
	return s.backend.Close()
}

type collection[T core.Record] struct {
	backend DocumentBackend
	name    string
}

func (c *collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	doc, err := c.backend.GetDocument(ctx, c.name, id)
	if err != nil {
		return zero, err
	}
	return decode[T](doc)
}

func (c *collection[T]) List(ctx context.Context) ([]T, error) {
	docs, err := c.backend.ListDocuments(ctx, c.name)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](docs)
}

func (c *collection[T]) Put(ctx context.Context, item T) error {
	doc, err := Encode(c.name, item)
	if err != nil {
		return err
	}
	return c.backend.PutDocument(ctx, doc)
}

func (c *collection[T]) Delete(ctx context.Context, id string) error {
	return c.backend.DeleteDocument(ctx, c.name, id)
}

type paymentCollection struct {
	collection[core.Payment]
}

func (c *paymentCollection) FindForPeriod(ctx context.Context, clientID string, period core.Period) ([]core.Payment, error) {
	docs, err := c.backend.FindDocuments(ctx, c.name, clientID, period.String()+"-")
	if err != nil {
		return nil, err
	}
	return decodeAll[core.Payment](docs)
}

// Encode builds the stored form of item, extracting index columns.
func Encode[T core.Record](name string, item T) (Document, error) {
	if item.RecordID() == "" {
		return Document{}, fmt.Errorf("encode %s: empty id", name)
	}
	body, err := json.Marshal(item)
	if err != nil {
		return Document{}, fmt.Errorf("encode %s %s: %w", name, item.RecordID(), err)
	}
	doc := Document{Collection: name, ID: item.RecordID(), Body: body}
	switch v := any(item).(type) {
	case core.Payment:
		doc.ClientID = v.ClientID
		doc.DueDate = v.DueDate.String()
	case core.Project:
		doc.ClientID = v.ClientID
		doc.DueDate = v.Deadline.String()
	case core.Task:
		doc.DueDate = v.DueDate.String()
	}
	return doc, nil
}

func decode[T core.Record](doc Document) (T, error) {
	var v T
	if err := json.Unmarshal(doc.Body, &v); err != nil {
		return v, fmt.Errorf("decode %s %s: %w", doc.Collection, doc.ID, err)
	}
	return v, nil
}

func decodeAll[T core.Record](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := decode[T](d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// NotFound wraps core.ErrNotFound with the missing key.
func NotFound(collection, id string) error {
	return fmt.Errorf("%s %q: %w", collection, id, core.ErrNotFound)
}

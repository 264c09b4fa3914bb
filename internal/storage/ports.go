// Package storage defines the persistence ports used by the ledger and the
// API, and a typed document layer shared by every backend.
//
// Each backend only knows how to store opaque JSON documents keyed by
// (collection, id) with two optional index columns. Writes touch a single
// document, so two writers updating different records never overwrite each
// other's changes.
package storage

import (
	"context"

	"bizdash/internal/core"
)

// Collection names.
const (
	Clients  = "clients"
	Payments = "payments"
	Projects = "projects"
	Goals    = "goals"
	Tasks    = "tasks"
	Users    = "users"
)

type (
	// Collection is a keyed set of records kept in insertion order.
	Collection[T core.Record] interface {
		// Get returns core.ErrNotFound (wrapped) when id is unknown.
		Get(ctx context.Context, id string) (T, error)
		List(ctx context.Context) ([]T, error)
		// Put inserts item or replaces the stored record with the same id in place.
		Put(ctx context.Context, item T) error
		Delete(ctx context.Context, id string) error
	}

	// PaymentStore adds the period lookup the reconciler needs.
	PaymentStore interface {
		Collection[core.Payment]
		// FindForPeriod returns every payment of clientID whose due date falls in
		// period, in insertion order.
		FindForPeriod(ctx context.Context, clientID string, period core.Period) ([]core.Payment, error)
	}

	Store interface {
		Clients() Collection[core.Client]
		Payments() PaymentStore
		Projects() Collection[core.Project]
		Goals() Collection[core.Goal]
		Tasks() Collection[core.Task]
		Users() Collection[core.User]
		Close() error
	}

	// Document is the stored form of a record.
	Document struct {
		Collection string
		ID         string
		// ClientID and DueDate are extracted for indexed lookups; empty when the
		// record kind has no such field.
		ClientID string
		DueDate  string
		Body     []byte
	}

	// DocumentBackend is implemented by each concrete datastore.
	DocumentBackend interface {
		GetDocument(ctx context.Context, collection, id string) (Document, error)
		ListDocuments(ctx context.Context, collection string) ([]Document, error)
		PutDocument(ctx context.Context, doc Document) error
		DeleteDocument(ctx context.Context, collection, id string) error
		// FindDocuments matches client_id exactly and due_date by prefix.
		FindDocuments(ctx context.Context, collection, clientID, dueDatePrefix string) ([]Document, error)
		Close() error
	}
)

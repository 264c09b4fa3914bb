// Package sqlite stores ledger documents in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"bizdash/internal/storage"

	_ "modernc.org/sqlite"
)

type Backend struct {
	db *sql.DB
}

// Open creates the database directory if needed, connects and migrates.
func Open(dbPath string) (*Backend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Backend{db: db}, nil
}

// NewStore opens dbPath and wraps it in the typed store.
func NewStore(dbPath string) (storage.Store, error) {
	b, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	return storage.NewDocumentStore(b), nil
}

func (b *Backend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

const selectColumns = `SELECT collection, id, client_id, due_date, body FROM documents`

func (b *Backend) GetDocument(ctx context.Context, collection, id string) (storage.Document, error) {
	row := b.db.QueryRowContext(ctx, selectColumns+` WHERE collection = ? AND id = ?`, collection, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Document{}, storage.NotFound(collection, id)
	}
	if err != nil {
		return storage.Document{}, fmt.Errorf("get %s %s: %w", collection, id, err)
	}
	return doc, nil
}

func (b *Backend) ListDocuments(ctx context.Context, collection string) ([]storage.Document, error) {
	rows, err := b.db.QueryContext(ctx, selectColumns+` WHERE collection = ? ORDER BY seq`, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return collect(rows)
}

// PutDocument keeps the original seq on update so list order stays stable.
func (b *Backend) PutDocument(ctx context.Context, doc storage.Document) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, client_id, due_date, body)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET
			client_id = excluded.client_id,
			due_date = excluded.due_date,
			body = excluded.body,
			updated_at = CURRENT_TIMESTAMP`,
		doc.Collection, doc.ID, doc.ClientID, doc.DueDate, string(doc.Body))
	if err != nil {
		return fmt.Errorf("put %s %s: %w", doc.Collection, doc.ID, err)
	}
	return nil
}

func (b *Backend) DeleteDocument(ctx context.Context, collection, id string) error {
	res, err := b.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", collection, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.NotFound(collection, id)
	}
	return nil
}

func (b *Backend) FindDocuments(ctx context.Context, collection, clientID, dueDatePrefix string) ([]storage.Document, error) {
	rows, err := b.db.QueryContext(ctx,
		selectColumns+` WHERE collection = ? AND client_id = ? AND substr(due_date, 1, ?) = ? ORDER BY seq`,
		collection, clientID, len(dueDatePrefix), dueDatePrefix)
	if err != nil {
		return nil, fmt.Errorf("find %s for %s: %w", collection, clientID, err)
	}
	return collect(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (storage.Document, error) {
	var (
		doc  storage.Document
		body string
	)
	if err := s.Scan(&doc.Collection, &doc.ID, &doc.ClientID, &doc.DueDate, &body); err != nil {
		return storage.Document{}, err
	}
	doc.Body = []byte(body)
	return doc, nil
}

func collect(rows *sql.Rows) ([]storage.Document, error) {
	defer rows.Close()
	var docs []storage.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

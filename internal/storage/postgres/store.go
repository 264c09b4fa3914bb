// Package postgres stores ledger documents in a hosted Postgres database
// through gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bizdash/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// documentModel is the single table behind every collection.
type documentModel struct {
	Seq        int64  `gorm:"primaryKey;autoIncrement"`
	Collection string `gorm:"not null;uniqueIndex:idx_documents_key,priority:1;index:idx_documents_period,priority:1"`
	DocID      string `gorm:"column:id;not null;uniqueIndex:idx_documents_key,priority:2"`
	ClientID   string `gorm:"not null;default:'';index:idx_documents_period,priority:2"`
	DueDate    string `gorm:"not null;default:'';index:idx_documents_period,priority:3"`
	Body       string `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (documentModel) TableName() string { return "documents" }

type Backend struct {
	db *gorm.DB
}

// Open connects to dsn and migrates the documents table.
func Open(dsn string) (*Backend, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.AutoMigrate(&documentModel{}); err != nil {
		return nil, fmt.Errorf("migrate documents: %w", err)
	}
	return &Backend{db: db}, nil
}

// NewStore connects to dsn and wraps it in the typed store.
func NewStore(dsn string) (storage.Store, error) {
	b, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	return storage.NewDocumentStore(b), nil
}

func (b *Backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (b *Backend) GetDocument(ctx context.Context, collection, id string) (storage.Document, error) {
	var m documentModel
	err := b.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.Document{}, storage.NotFound(collection, id)
	}
	if err != nil {
		return storage.Document{}, fmt.Errorf("get %s %s: %w", collection, id, err)
	}
	return m.document(), nil
}

func (b *Backend) ListDocuments(ctx context.Context, collection string) ([]storage.Document, error) {
	var models []documentModel
	if err := b.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("seq").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return documents(models), nil
}

func (b *Backend) PutDocument(ctx context.Context, doc storage.Document) error {
	m := documentModel{
		Collection: doc.Collection,
		DocID:      doc.ID,
		ClientID:   doc.ClientID,
		DueDate:    doc.DueDate,
		Body:       string(doc.Body),
	}
	err := b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"client_id", "due_date", "body", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("put %s %s: %w", doc.Collection, doc.ID, err)
	}
	return nil
}

func (b *Backend) DeleteDocument(ctx context.Context, collection, id string) error {
	res := b.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&documentModel{})
	if res.Error != nil {
		return fmt.Errorf("delete %s %s: %w", collection, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.NotFound(collection, id)
	}
	return nil
}

func (b *Backend) FindDocuments(ctx context.Context, collection, clientID, dueDatePrefix string) ([]storage.Document, error) {
	var models []documentModel
	if err := b.db.WithContext(ctx).
		Where("collection = ? AND client_id = ? AND due_date LIKE ?", collection, clientID, dueDatePrefix+"%").
		Order("seq").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find %s for %s: %w", collection, clientID, err)
	}
	return documents(models), nil
}

func (m documentModel) document() storage.Document {
	return storage.Document{
		Collection: m.Collection,
		ID:         m.DocID,
		ClientID:   m.ClientID,
		DueDate:    m.DueDate,
		Body:       []byte(m.Body),
	}
}

func documents(models []documentModel) []storage.Document {
	out := make([]storage.Document, 0, len(models))
	for _, m := range models {
		out = append(out, m.document())
	}
	return out
}

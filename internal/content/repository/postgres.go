package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gogotex/contentstore/internal/content"
	"github.com/gogotex/contentstore/internal/content/collection"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type documentRow struct {
	ID        string `gorm:"primaryKey;type:text"`
	Kind      string `gorm:"type:text;not null"`
	Body      string `gorm:"type:text;not null"`
	Version   int64  `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (documentRow) TableName() string { return "documents" }

type apiKeyRow struct {
	Key        string `gorm:"primaryKey;type:text"`
	DocumentID string `gorm:"type:text;not null;index"`
	CreatedAt  time.Time
}

func (apiKeyRow) TableName() string { return "api_keys" }

func (r documentRow) toDocument() *content.Document {
	return &content.Document{
		ID:        r.ID,
		Kind:      r.Kind,
		Body:      json.RawMessage(r.Body),
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// PostgresRepo implements Store on PostgreSQL through GORM. Bodies are kept
// as text so they round-trip byte for byte.
type PostgresRepo struct {
	db *gorm.DB
}

func NewPostgresRepo(db *gorm.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// Migrate creates or extends the documents and api_keys tables.
func (p *PostgresRepo) Migrate(ctx context.Context) error {
	return p.db.WithContext(ctx).AutoMigrate(&documentRow{}, &apiKeyRow{})
}

func (p *PostgresRepo) CreateDocument(ctx context.Context, doc *content.Document) (string, error) {
	prepareNew(doc)
	row := documentRow{
		ID: doc.ID, Kind: doc.Kind, Body: string(doc.Body), Version: doc.Version,
		CreatedAt: doc.CreatedAt, UpdatedAt: doc.UpdatedAt,
	}
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return doc.ID, nil
}

func (p *PostgresRepo) BindKey(ctx context.Context, key, documentID string) error {
	if _, err := p.GetDocument(ctx, documentID); err != nil {
		return err
	}
	row := apiKeyRow{Key: key, DocumentID: documentID, CreatedAt: time.Now().UTC()}
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"document_id"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("bind key: %w", err)
	}
	return nil
}

func (p *PostgresRepo) FindByKey(ctx context.Context, key string) (*content.Document, error) {
	var k apiKeyRow
	if err := p.db.WithContext(ctx).First(&k, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p.GetDocument(ctx, k.DocumentID)
}

func (p *PostgresRepo) GetDocument(ctx context.Context, id string) (*content.Document, error) {
	var row documentRow
	if err := p.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toDocument(), nil
}

func (p *PostgresRepo) ReplaceBody(ctx context.Context, id string, expectedVersion int64, body json.RawMessage) (*content.Document, error) {
	var row documentRow
	res := p.db.WithContext(ctx).Model(&row).
		Clauses(clause.Returning{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]any{
			"body":       string(body),
			"kind":       string(collection.KindOf(body)),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("replace body: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := p.GetDocument(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrVersionConflict
	}
	return row.toDocument(), nil
}

func (p *PostgresRepo) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (p *PostgresRepo) Close(context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

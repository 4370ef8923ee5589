package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gogotex/contentstore/internal/content"
	"github.com/gogotex/contentstore/internal/content/collection"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	body       TEXT NOT NULL,
	version    INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS api_keys (
	key         TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
);
`

// SQLiteRepo stores documents and key bindings in a SQLite database.
//
// Tables:
//
//	documents(id, kind, body, version, created_at, updated_at)
//	api_keys(key, document_id, created_at)
type SQLiteRepo struct {
	db *sql.DB
}

// NewSQLiteRepo takes an open handle (see database.OpenSQLite) and creates
// the schema if needed.
func NewSQLiteRepo(ctx context.Context, db *sql.DB) (*SQLiteRepo, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLiteRepo{db: db}, nil
}

func (s *SQLiteRepo) CreateDocument(ctx context.Context, doc *content.Document) (string, error) {
	prepareNew(doc)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, kind, body, version, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Kind, string(doc.Body), doc.Version, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return doc.ID, nil
}

func (s *SQLiteRepo) BindKey(ctx context.Context, key, documentID string) error {
	if _, err := s.GetDocument(ctx, documentID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (key, document_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET document_id = excluded.document_id`,
		key, documentID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("bind key: %w", err)
	}
	return nil
}

func (s *SQLiteRepo) FindByKey(ctx context.Context, key string) (*content.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT d.id, d.kind, d.body, d.version, d.created_at, d.updated_at
		 FROM api_keys k JOIN documents d ON d.id = k.document_id
		 WHERE k.key = ?`, key)
	return scanDocument(row)
}

func (s *SQLiteRepo) GetDocument(ctx context.Context, id string) (*content.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, body, version, created_at, updated_at FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

// ReplaceBody updates and re-reads the row in one transaction. SQLite holds
// the write lock until commit, so the returned document is exactly the
// version this call wrote.
func (s *SQLiteRepo) ReplaceBody(ctx context.Context, id string, expectedVersion int64, body json.RawMessage) (*content.Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("replace body: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE documents SET body = ?, kind = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		string(body), string(collection.KindOf(body)), time.Now().UTC(), id, expectedVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("replace body: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("replace body: %w", err)
	}
	doc, err := scanDocument(tx.QueryRowContext(ctx,
		`SELECT id, kind, body, version, created_at, updated_at FROM documents WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// someone else wrote first
		return nil, ErrVersionConflict
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("replace body: %w", err)
	}
	return doc, nil
}

func (s *SQLiteRepo) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteRepo) Close(context.Context) error { return s.db.Close() }

func scanDocument(row *sql.Row) (*content.Document, error) {
	var d content.Document
	var body string
	if err := row.Scan(&d.ID, &d.Kind, &body, &d.Version, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	d.Body = json.RawMessage(body)
	return &d, nil
}

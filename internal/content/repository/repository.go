package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gogotex/contentstore/internal/content"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrVersionConflict = errors.New("document version changed since it was read")
)

// Store is the persistence contract used by the content service. Body writes
// are whole-document replacements guarded by the version read beforehand.
type Store interface {
	// FindByKey returns the document bound to key, or ErrNotFound when the
	// key has no binding or the bound row is gone.
	FindByKey(ctx context.Context, key string) (*content.Document, error)
	GetDocument(ctx context.Context, id string) (*content.Document, error)
	// ReplaceBody writes body when the stored version still equals
	// expectedVersion and returns the committed document.
	ReplaceBody(ctx context.Context, id string, expectedVersion int64, body json.RawMessage) (*content.Document, error)
	CreateDocument(ctx context.Context, doc *content.Document) (string, error)
	// BindKey points key at documentID, replacing any previous binding.
	BindKey(ctx context.Context, key, documentID string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

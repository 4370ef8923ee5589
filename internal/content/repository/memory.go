package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gogotex/contentstore/internal/content"
	"github.com/gogotex/contentstore/internal/content/collection"
	"github.com/google/uuid"
)

// MemoryRepo is an in-memory Store used for local runs and unit tests.
// Documents are cloned on the way in and out so callers never share state
// with the repository.
type MemoryRepo struct {
	mu   sync.RWMutex
	docs map[string]*content.Document
	keys map[string]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{docs: make(map[string]*content.Document), keys: make(map[string]string)}
}

func (m *MemoryRepo) CreateDocument(_ context.Context, doc *content.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prepareNew(doc)
	m.docs[doc.ID] = doc.Clone()
	return doc.ID, nil
}

func (m *MemoryRepo) BindKey(_ context.Context, key, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[documentID]; !ok {
		return ErrNotFound
	}
	m.keys[key] = documentID
	return nil
}

func (m *MemoryRepo) FindByKey(_ context.Context, key string) (*content.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.keys[key]
	if !ok {
		return nil, ErrNotFound
	}
	d, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d.Clone(), nil
}

func (m *MemoryRepo) GetDocument(_ context.Context, id string) (*content.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.docs[id]; ok {
		return d.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) ReplaceBody(_ context.Context, id string, expectedVersion int64, body json.RawMessage) (*content.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if d.Version != expectedVersion {
		return nil, ErrVersionConflict
	}
	next := d.Clone()
	next.Body = append(json.RawMessage(nil), body...)
	next.Kind = string(collection.KindOf(body))
	next.Version++
	next.UpdatedAt = time.Now().UTC()
	m.docs[id] = next
	return next.Clone(), nil
}

// DeleteDocument removes a row but leaves its key bindings dangling, which is
// how tests model a key whose document disappeared.
func (m *MemoryRepo) DeleteDocument(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
}

func (m *MemoryRepo) Ping(context.Context) error { return nil }

func (m *MemoryRepo) Close(context.Context) error { return nil }

// prepareNew fills the defaults every backend applies to a new document.
func prepareNew(doc *content.Document) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if len(doc.Body) == 0 {
		doc.Body = json.RawMessage("[]")
	}
	doc.Kind = string(collection.KindOf(doc.Body))
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	doc.Version = 1
}

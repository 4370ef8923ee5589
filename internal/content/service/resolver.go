package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogotex/contentstore/internal/content"
	"github.com/gogotex/contentstore/internal/content/collection"
	"github.com/gogotex/contentstore/internal/content/repository"
)

// Resolved is the document a tenant key currently points at, as read once
// for the current request.
type Resolved struct {
	Document *content.Document
	Body     collection.Body
}

func (r *Resolved) DocumentID() string { return r.Document.ID }

func (r *Resolved) Version() int64 { return r.Document.Version }

// Resolve maps a tenant key to its document. A key without a binding, or
// bound to a row that no longer exists, is ErrNotFound.
func (s *Service) Resolve(ctx context.Context, key string) (*Resolved, error) {
	if key == "" {
		return nil, ErrNotFound
	}
	doc, err := s.store.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("resolve key: %w", err)
	}
	body, err := collection.Parse(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("document %s has an unreadable body: %w", doc.ID, err)
	}
	return &Resolved{Document: doc, Body: body}, nil
}

package content

import (
	"encoding/json"
	"time"
)

// Document is one tenant's stored JSON value. Body holds the encoded
// document; Kind is derived from it on every write. Version increases by one
// on each body replacement and is what concurrent writers compare against.
type Document struct {
	ID        string          `json:"id" bson:"_id"`
	Kind      string          `json:"kind" bson:"kind"`
	Body      json.RawMessage `json:"body" bson:"-"`
	Version   int64           `json:"version" bson:"version"`
	CreatedAt time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// APIKey binds an opaque tenant key to a single document.
type APIKey struct {
	Key        string    `json:"key" bson:"_id"`
	DocumentID string    `json:"documentId" bson:"documentId"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

// Clone returns a copy whose Body does not alias d.Body.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Body = append(json.RawMessage(nil), d.Body...)
	return &c
}

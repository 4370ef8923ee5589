// Package collection treats an untyped JSON document as a lightweight record
// set. Every operation is a pure function of the current body: it returns a
// replacement body and never changes the one it was given.
package collection

import (
	"bytes"
	"encoding/json"
	"errors"
)

var (
	ErrInvalidJSON    = errors.New("collection: invalid JSON")
	ErrNotRecordSet   = errors.New("collection: body is not a record set")
	ErrRecordNotFound = errors.New("collection: record not found")
	ErrFieldRequired  = errors.New("collection: field and value are required")
	ErrInvalidPayload = errors.New("collection: payload must be an object or an array of objects")
)

// Kind discriminates the two shapes a document body can take.
type Kind string

const (
	KindRecordSet Kind = "recordset"
	KindScalar    Kind = "scalar"
)

// KindOf reports the shape of an encoded body without decoding it.
func KindOf(raw []byte) Kind {
	if t := bytes.TrimSpace(raw); len(t) > 0 && t[0] == '[' {
		return KindRecordSet
	}
	return KindScalar
}

// Body is a document body. The zero value is the neutral body and encodes as null.
type Body struct {
	kind    Kind
	records []Record
	scalar  json.RawMessage
}

// Parse decodes a stored or submitted document body.
func Parse(raw []byte) (Body, error) {
	if !json.Valid(raw) {
		return Body{}, ErrInvalidJSON
	}
	if KindOf(raw) == KindRecordSet {
		var records []Record
		if err := json.Unmarshal(raw, &records); err != nil {
			return Body{}, err
		}
		return NewRecordSet(records), nil
	}
	scalar := make(json.RawMessage, len(raw))
	copy(scalar, raw)
	return Body{kind: KindScalar, scalar: scalar}, nil
}

// NewRecordSet builds a RecordSet body that owns a copy of records.
func NewRecordSet(records []Record) Body {
	rs := make([]Record, len(records))
	copy(rs, records)
	return Body{kind: KindRecordSet, records: rs}
}

func (b Body) Kind() Kind { return b.kind }

func (b Body) IsRecordSet() bool { return b.kind == KindRecordSet }

// IsZero reports whether b is the neutral body.
func (b Body) IsZero() bool { return b.kind == "" }

// Len is the number of records, 0 for scalars.
func (b Body) Len() int { return len(b.records) }

// Records returns a copy of the record slice.
func (b Body) Records() []Record {
	if !b.IsRecordSet() {
		return nil
	}
	out := make([]Record, len(b.records))
	copy(out, b.records)
	return out
}

func (b Body) MarshalJSON() ([]byte, error) {
	switch b.kind {
	case KindRecordSet:
		if b.records == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(b.records)
	case KindScalar:
		return b.scalar, nil
	}
	return []byte("null"), nil
}

func (b *Body) UnmarshalJSON(raw []byte) error {
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

package collection

import (
	"bytes"
	"encoding/json"
)

// IDField is the attribute used as a record identifier.
const IDField = "id"

// Record is one element of a RecordSet. It keeps the element's original
// encoding so records that are not touched by a mutation are written back
// exactly as they were read. Elements that are not JSON objects are kept too;
// they have no fields and never match a lookup or predicate.
type Record struct {
	raw    json.RawMessage
	fields map[string]json.RawMessage
}

// NewRecord parses a single JSON value into a Record.
func NewRecord(raw []byte) (Record, error) {
	var r Record
	if err := r.UnmarshalJSON(raw); err != nil {
		return Record{}, err
	}
	return r, nil
}

func (r *Record) UnmarshalJSON(b []byte) error {
	raw := make(json.RawMessage, len(b))
	copy(raw, b)
	if !json.Valid(raw) {
		return ErrInvalidJSON
	}
	r.raw = raw
	r.fields = nil
	if t := bytes.TrimSpace(raw); len(t) > 0 && t[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return err
		}
		r.fields = fields
	}
	return nil
}

func (r Record) MarshalJSON() ([]byte, error) {
	if r.raw == nil {
		return []byte("null"), nil
	}
	return r.raw, nil
}

// IsObject reports whether the record is a JSON object.
func (r Record) IsObject() bool { return r.fields != nil }

// Field returns the raw value of an attribute and whether it is present.
func (r Record) Field(name string) (json.RawMessage, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// ID returns the record identifier. Only string identifiers count.
func (r Record) ID() (string, bool) {
	v, ok := r.fields[IDField]
	if !ok {
		return "", false
	}
	var id string
	if err := json.Unmarshal(v, &id); err != nil {
		return "", false
	}
	return id, true
}

// hasUsableID is false for a missing, null or empty-string id.
func (r Record) hasUsableID() bool {
	v, ok := r.fields[IDField]
	if !ok {
		return false
	}
	t := string(bytes.TrimSpace(v))
	return t != "null" && t != `""`
}

// Attributes returns a copy of the record's attribute map, nil for non-objects.
func (r Record) Attributes() map[string]json.RawMessage {
	if r.fields == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}

// With returns a copy of r with one attribute set. The receiver is not changed.
func (r Record) With(name string, value json.RawMessage) (Record, error) {
	fields := r.Attributes()
	if fields == nil {
		fields = make(map[string]json.RawMessage, 1)
	}
	fields[name] = value
	raw, err := json.Marshal(fields)
	if err != nil {
		return Record{}, err
	}
	return Record{raw: raw, fields: fields}, nil
}

// Equal compares the encoded form of two records.
func (r Record) Equal(o Record) bool {
	return bytes.Equal(r.raw, o.raw)
}

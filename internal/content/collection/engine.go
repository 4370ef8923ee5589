package collection

import (
	"bytes"
	"encoding/json"
)

// Filter keeps the records whose field matches value. With no field or no
// value the body is returned unchanged (a full read). A scalar body has
// nothing to filter and yields the neutral body.
func Filter(body Body, field, value string) Body {
	if field == "" || value == "" {
		return body
	}
	if !body.IsRecordSet() {
		return Body{}
	}
	kept := make([]Record, 0, len(body.records))
	for _, r := range body.records {
		if FieldEquals(r, field, value) {
			kept = append(kept, r)
		}
	}
	return Body{kind: KindRecordSet, records: kept}
}

// FindByID returns the first record whose string id equals id.
func FindByID(body Body, id string) (Record, bool) {
	i := indexOf(body, id)
	if i < 0 {
		return Record{}, false
	}
	return body.records[i], true
}

func indexOf(body Body, id string) int {
	if !body.IsRecordSet() {
		return -1
	}
	for i, r := range body.records {
		if rid, ok := r.ID(); ok && rid == id {
			return i
		}
	}
	return -1
}

// MergeUpdate sets one attribute on the record with the given id. The new
// record takes the old one's position; every other record is carried over
// as is.
func MergeUpdate(body Body, id, field string, value json.RawMessage) (Body, Record, error) {
	if field == "" || isAbsent(value) {
		return Body{}, Record{}, ErrFieldRequired
	}
	if !json.Valid(value) {
		return Body{}, Record{}, ErrInvalidJSON
	}
	i := indexOf(body, id)
	if i < 0 {
		return Body{}, Record{}, ErrRecordNotFound
	}
	updated, err := body.records[i].With(field, value)
	if err != nil {
		return Body{}, Record{}, err
	}
	next := body.Records()
	next[i] = updated
	return Body{kind: KindRecordSet, records: next}, updated, nil
}

// Append adds records to the end of a RecordSet.
//
// An array payload is appended verbatim and the result is the whole new
// record set. A single object gets an id from newID when it has none and the
// result is the record found under that id in the new set.
func Append(body Body, payload json.RawMessage, newID func() string) (Body, any, error) {
	if isAbsent(payload) {
		return Body{}, nil, ErrInvalidPayload
	}
	if !body.IsRecordSet() {
		return Body{}, []Record{}, ErrNotRecordSet
	}
	if KindOf(payload) == KindRecordSet {
		var incoming []Record
		if err := json.Unmarshal(payload, &incoming); err != nil {
			return Body{}, nil, ErrInvalidPayload
		}
		next := append(body.Records(), incoming...)
		nb := Body{kind: KindRecordSet, records: next}
		return nb, nb, nil
	}

	rec, err := NewRecord(payload)
	if err != nil || !rec.IsObject() {
		return Body{}, nil, ErrInvalidPayload
	}
	if !rec.hasUsableID() {
		idRaw, err := json.Marshal(newID())
		if err != nil {
			return Body{}, nil, err
		}
		if rec, err = rec.With(IDField, idRaw); err != nil {
			return Body{}, nil, err
		}
	}
	next := append(body.Records(), rec)
	nb := Body{kind: KindRecordSet, records: next}
	if id, ok := rec.ID(); ok {
		if found, ok := FindByID(nb, id); ok {
			return nb, found, nil
		}
	}
	return nb, rec, nil
}

// PredicateDelete removes every record matching a "field=value" token. A
// malformed token matches nothing, so the result equals the input.
func PredicateDelete(body Body, token string) (Body, error) {
	if !body.IsRecordSet() {
		return Body{}, ErrNotRecordSet
	}
	p, ok := ParsePredicate(token)
	if !ok {
		return NewRecordSet(body.records), nil
	}
	kept := make([]Record, 0, len(body.records))
	for _, r := range body.records {
		if !FieldEquals(r, p.Field, p.Value) {
			kept = append(kept, r)
		}
	}
	return Body{kind: KindRecordSet, records: kept}, nil
}

// Replace discards the current body and adopts next, whatever its shape.
func Replace(next json.RawMessage) (Body, error) {
	if isAbsent(next) {
		return Parse([]byte("null"))
	}
	return Parse(next)
}

func isAbsent(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || string(t) == "null"
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gogotex/contentstore/internal/content/collection"
)

// List returns the whole body, or the records matching field=value when both
// are given.
func (s *Service) List(ctx context.Context, key, field, value string) (res *Result, err error) {
	defer func(start time.Time) { observe("list", start, res, err) }(time.Now())

	res = &Result{}
	cur, err := s.Resolve(ctx, key)
	if err != nil {
		return res, err
	}
	res.DocumentID = cur.DocumentID()
	res.Version = cur.Version()
	res.Content = collection.Filter(cur.Body, field, value)
	return res, nil
}

// Get returns one record by id.
func (s *Service) Get(ctx context.Context, key, id string) (res *Result, err error) {
	defer func(start time.Time) { observe("get", start, res, err) }(time.Now())

	res = &Result{}
	cur, err := s.Resolve(ctx, key)
	if err != nil {
		return res, err
	}
	res.DocumentID = cur.DocumentID()
	res.Version = cur.Version()
	rec, ok := collection.FindByID(cur.Body, id)
	if !ok {
		return res, ErrNotFound
	}
	res.Content = rec
	return res, nil
}

// Update sets field to value on the record with the given id.
func (s *Service) Update(ctx context.Context, key, id, field string, value json.RawMessage) (res *Result, err error) {
	defer func(start time.Time) { observe("update", start, res, err) }(time.Now())

	if field == "" || len(value) == 0 || string(value) == "null" {
		return &Result{}, fmt.Errorf("%w: key and value are required", ErrInvalidInput)
	}
	return s.commit(ctx, key, false, func(body collection.Body) (*collection.Body, any, error) {
		next, rec, err := collection.MergeUpdate(body, id, field, value)
		if err != nil {
			return nil, nil, engineError(err)
		}
		return &next, rec, nil
	})
}

// Add appends data to the record set, or replaces the whole body with data
// when clear is set. Appending to a scalar body writes nothing and yields an
// empty list.
func (s *Service) Add(ctx context.Context, key string, clear bool, data json.RawMessage) (res *Result, err error) {
	if clear {
		defer func(start time.Time) { observe("replace", start, res, err) }(time.Now())
		next, perr := collection.Replace(data)
		if perr != nil {
			return &Result{}, engineError(perr)
		}
		return s.commit(ctx, key, true, func(collection.Body) (*collection.Body, any, error) {
			return &next, next, nil
		})
	}

	defer func(start time.Time) { observe("append", start, res, err) }(time.Now())
	return s.commit(ctx, key, false, func(body collection.Body) (*collection.Body, any, error) {
		next, result, err := collection.Append(body, data, s.ids.NewID)
		if errors.Is(err, collection.ErrNotRecordSet) {
			return nil, result, nil
		}
		if err != nil {
			return nil, nil, engineError(err)
		}
		return &next, result, nil
	})
}

// Remove deletes every record matching a "field=value" token.
func (s *Service) Remove(ctx context.Context, key, token string) (res *Result, err error) {
	defer func(start time.Time) { observe("delete", start, res, err) }(time.Now())

	if _, ok := collection.ParsePredicate(token); !ok {
		return &Result{}, fmt.Errorf("%w: expected field=value, got %q", ErrInvalidInput, token)
	}
	return s.commit(ctx, key, false, func(body collection.Body) (*collection.Body, any, error) {
		next, err := collection.PredicateDelete(body, token)
		if errors.Is(err, collection.ErrNotRecordSet) {
			return nil, nil, nil
		}
		if err != nil {
			return nil, nil, engineError(err)
		}
		return &next, nil, nil
	})
}

func engineError(err error) error {
	switch {
	case errors.Is(err, collection.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, collection.ErrFieldRequired),
		errors.Is(err, collection.ErrInvalidPayload),
		errors.Is(err, collection.ErrInvalidJSON):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return err
}

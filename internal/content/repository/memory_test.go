package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/gogotex/contentstore/internal/content"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the contract every Store backend must satisfy.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	d := &content.Document{Body: json.RawMessage(`[{"id":"1","title":"A"}]`)}
	id, err := s.CreateDocument(ctx, d)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Equal(t, int64(1), d.Version)
	require.Equal(t, "recordset", d.Kind)

	require.NoError(t, s.BindKey(ctx, "key-1", id))
	require.ErrorIs(t, s.BindKey(ctx, "key-2", "no-such-doc"), ErrNotFound)

	got, err := s.FindByKey(ctx, "key-1")
	require.NoError(t, err)
	require.Equal(t, id, got.ID)
	require.JSONEq(t, `[{"id":"1","title":"A"}]`, string(got.Body))

	_, err = s.FindByKey(ctx, "unknown")
	require.ErrorIs(t, err, ErrNotFound)

	committed, err := s.ReplaceBody(ctx, id, 1, json.RawMessage(`"now a scalar"`))
	require.NoError(t, err)
	require.Equal(t, int64(2), committed.Version)
	require.Equal(t, "scalar", committed.Kind)
	require.JSONEq(t, `"now a scalar"`, string(committed.Body))

	// stale version is rejected and the stored body is untouched
	_, err = s.ReplaceBody(ctx, id, 1, json.RawMessage(`[]`))
	require.ErrorIs(t, err, ErrVersionConflict)
	got, err = s.GetDocument(ctx, id)
	require.NoError(t, err)
	require.JSONEq(t, `"now a scalar"`, string(got.Body))

	_, err = s.ReplaceBody(ctx, "no-such-doc", 1, json.RawMessage(`[]`))
	require.ErrorIs(t, err, ErrNotFound)

	// rebinding moves the key
	other := &content.Document{Body: json.RawMessage(`{"v":1}`)}
	otherID, err := s.CreateDocument(ctx, other)
	require.NoError(t, err)
	require.NoError(t, s.BindKey(ctx, "key-1", otherID))
	got, err = s.FindByKey(ctx, "key-1")
	require.NoError(t, err)
	require.Equal(t, otherID, got.ID)

	require.NoError(t, s.Ping(ctx))
}

func TestMemoryRepoContract(t *testing.T) {
	exerciseStore(t, NewMemoryRepo())
}

func TestMemoryRepoIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	id, err := r.CreateDocument(ctx, &content.Document{Body: json.RawMessage(`[1]`)})
	require.NoError(t, err)
	require.NoError(t, r.BindKey(ctx, "k", id))

	got, err := r.FindByKey(ctx, "k")
	require.NoError(t, err)
	got.Body[1] = '2'

	again, err := r.FindByKey(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "[1]", string(again.Body))
}

func TestMemoryRepoDanglingBinding(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	id, err := r.CreateDocument(ctx, &content.Document{})
	require.NoError(t, err)
	require.NoError(t, r.BindKey(ctx, "k", id))
	r.DeleteDocument(id)

	_, err = r.FindByKey(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}

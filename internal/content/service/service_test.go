package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/gogotex/contentstore/internal/content"
	"github.com/gogotex/contentstore/internal/content/repository"
	"github.com/gogotex/contentstore/internal/replica"
	"github.com/stretchr/testify/require"
)

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("gen-%d", g.n)
}

func seed(t *testing.T, store repository.Store, key, body string) string {
	t.Helper()
	ctx := context.Background()
	id, err := store.CreateDocument(ctx, &content.Document{Body: json.RawMessage(body)})
	require.NoError(t, err)
	require.NoError(t, store.BindKey(ctx, key, id))
	return id
}

func asJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func storedBody(t *testing.T, store repository.Store, id string) (string, int64) {
	t.Helper()
	d, err := store.GetDocument(context.Background(), id)
	require.NoError(t, err)
	return string(d.Body), d.Version
}

func TestService_Scenario(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryRepo()
	docID := seed(t, store, "k1", `[{"id":"1","name":"Alice","age":30},{"id":"2","name":"bob","age":25}]`)
	svc := New(store, WithIDGenerator(&seqIDs{}))

	res, err := svc.List(ctx, "k1", "name", "BOB")
	require.NoError(t, err)
	require.Equal(t, docID, res.DocumentID)
	require.JSONEq(t, `[{"id":"2","name":"bob","age":25}]`, asJSON(t, res.Content))

	res, err = svc.Update(ctx, "k1", "1", "age", json.RawMessage(`31`))
	require.NoError(t, err)
	require.True(t, res.Committed)
	require.True(t, res.Synced)
	require.JSONEq(t, `{"id":"1","name":"Alice","age":31}`, asJSON(t, res.Content))

	res, err = svc.Add(ctx, "k1", false, json.RawMessage(`{"name":"Carol"}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"Carol","id":"gen-1"}`, asJSON(t, res.Content))

	res, err = svc.Remove(ctx, "k1", "age=25")
	require.NoError(t, err)
	require.Nil(t, res.Content)

	res, err = svc.List(ctx, "k1", "", "")
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":"1","name":"Alice","age":31},{"name":"Carol","id":"gen-1"}]`, asJSON(t, res.Content))
	require.Equal(t, int64(4), res.Version)

	res, err = svc.Get(ctx, "k1", "gen-1")
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"Carol","id":"gen-1"}`, asJSON(t, res.Content))
}

func TestService_UnresolvedKeys(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryRepo()
	docID := seed(t, store, "gone", `[]`)
	store.DeleteDocument(docID)
	svc := New(store)

	for _, key := range []string{"", "unknown", "gone"} {
		res, err := svc.List(ctx, key, "", "")
		require.ErrorIs(t, err, ErrNotFound, key)
		require.Empty(t, res.DocumentID)

		res, err = svc.Add(ctx, key, false, json.RawMessage(`{"a":1}`))
		require.ErrorIs(t, err, ErrNotFound, key)
		require.Empty(t, res.DocumentID)
	}
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryRepo()
	docID := seed(t, store, "k", `[{"id":"a","n":1}]`)
	svc := New(store)

	res, err := svc.Get(ctx, "k", "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, docID, res.DocumentID)

	seed(t, store, "scalar", `{"title":"x"}`)
	_, err = svc.Get(ctx, "scalar", "a")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_UpdateRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryRepo()
	docID := seed(t, store, "k", `[{"id":"1","a":1}]`)
	svc := New(store)

	cases := []struct {
		field string
		value json.RawMessage
	}{
		{"", json.RawMessage(`1`)},
		{"a", nil},
		{"a", json.RawMessage(`null`)},
	}
	for _, tc := range cases {
		_, err := svc.Update(ctx, "k", "1", tc.field, tc.value)
		require.ErrorIs(t, err, ErrInvalidInput)
	}

	_, err := svc.Update(ctx, "k", "nope", "a", json.RawMessage(`2`))
	require.ErrorIs(t, err, ErrNotFound)

	body, version := storedBody(t, store, docID)
	require.JSONEq(t, `[{"id":"1","a":1}]`, body)
	require.Equal(t, int64(1), version)
}

func TestService_AppendArrayAndScalar(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryRepo()
	seed(t, store, "k", `[{"id":"1"}]`)
	scalarID := seed(t, store, "s", `{"title":"x"}`)
	svc := New(store, WithIDGenerator(&seqIDs{}))

	res, err := svc.Add(ctx, "k", false, json.RawMessage(`[{"x":1},{"x":2}]`))
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":"1"},{"x":1},{"x":2}]`, asJSON(t, res.Content))

	_, err = svc.Add(ctx, "k", false, json.RawMessage(`42`))
	require.ErrorIs(t, err, ErrInvalidInput)

	res, err = svc.Add(ctx, "s", false, json.RawMessage(`{"a":1}`))
	require.NoError(t, err)
	require.False(t, res.Committed)
	require.Equal(t, "unchanged", Outcome(res, err))
	require.Equal(t, scalarID, res.DocumentID)
	require.JSONEq(t, `[]`, asJSON(t, res.Content))
	body, version := storedBody(t, store, scalarID)
	require.JSONEq(t, `{"title":"x"}`, body)
	require.Equal(t, int64(1), version)
}

func TestService_Remove(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryRepo()
	docID := seed(t, store, "k", `[{"id":"1","tag":"A"},{"id":"2","tag":"a"},{"id":"3"}]`)
	scalarID := seed(t, store, "s", `"text"`)
	svc := New(store)

	for _, token := range []string{"", "tag", "=A"} {
		_, err := svc.Remove(ctx, "k", token)
		require.ErrorIs(t, err, ErrInvalidInput, token)
	}

	res, err := svc.Remove(ctx, "k", "tag=a")
	require.NoError(t, err)
	require.True(t, res.Committed)
	require.Equal(t, "ok", Outcome(res, err))
	body, _ := storedBody(t, store, docID)
	require.JSONEq(t, `[{"id":"3"}]`, body)

	res, err = svc.Remove(ctx, "s", "tag=a")
	require.NoError(t, err)
	require.False(t, res.Committed)
	require.Equal(t, "unchanged", Outcome(res, err))
	_, version := storedBody(t, store, scalarID)
	require.Equal(t, int64(1), version)
}

type recordingArchiver struct {
	docs []*content.Document
	err  error
}

func (a *recordingArchiver) Snapshot(_ context.Context, doc *content.Document) error {
	if a.err != nil {
		return a.err
	}
	a.docs = append(a.docs, doc.Clone())
	return nil
}

func TestService_ReplaceSnapshotsPreviousBody(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryRepo()
	docID := seed(t, store, "k", `[{"id":"1"}]`)
	arch := &recordingArchiver{}
	svc := New(store, WithArchiver(arch))

	res, err := svc.Add(ctx, "k", true, json.RawMessage(`{"fresh":true}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"fresh":true}`, asJSON(t, res.Content))
	require.Len(t, arch.docs, 1)
	require.Equal(t, int64(1), arch.docs[0].Version)
	require.JSONEq(t, `[{"id":"1"}]`, string(arch.docs[0].Body))

	res, err = svc.Add(ctx, "k", true, nil)
	require.NoError(t, err)
	body, version := storedBody(t, store, docID)
	require.Equal(t, "null", body)
	require.Equal(t, int64(3), version)
	require.Equal(t, "null", asJSON(t, res.Content))
}

func TestService_ReplaceAbortsWhenSnapshotFails(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryRepo()
	docID := seed(t, store, "k", `[{"id":"1"}]`)
	svc := New(store, WithArchiver(&recordingArchiver{err: errors.New("bucket gone")}))

	res, err := svc.Add(ctx, "k", true, json.RawMessage(`[]`))
	require.Error(t, err)
	require.Equal(t, "error", Outcome(res, err))
	_, version := storedBody(t, store, docID)
	require.Equal(t, int64(1), version)
}

func TestService_SyncFailureKeepsCommit(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryRepo()
	docID := seed(t, store, "k", `[{"id":"1","a":1}]`)
	syncErr := errors.New("replica unreachable")
	var synced []int64
	svc := New(store, WithSyncer(replica.SyncFunc(func(_ context.Context, d *content.Document) error {
		synced = append(synced, d.Version)
		return syncErr
	})))

	res, err := svc.Update(ctx, "k", "1", "a", json.RawMessage(`2`))
	require.NoError(t, err)
	require.True(t, res.Committed)
	require.False(t, res.Synced)
	require.ErrorIs(t, res.SyncErr, syncErr)
	require.Equal(t, "sync_failed", Outcome(res, err))
	require.Equal(t, []int64{2}, synced)

	body, version := storedBody(t, store, docID)
	require.JSONEq(t, `[{"id":"1","a":2}]`, body)
	require.Equal(t, int64(2), version)
}

// raceStore holds the first two readers until both have loaded the same
// version, forcing their writes to collide.
type raceStore struct {
	*repository.MemoryRepo
	mu      sync.Mutex
	readers int
	ready   chan struct{}
}

func newRaceStore() *raceStore {
	return &raceStore{MemoryRepo: repository.NewMemoryRepo(), ready: make(chan struct{})}
}

func (r *raceStore) FindByKey(ctx context.Context, key string) (*content.Document, error) {
	doc, err := r.MemoryRepo.FindByKey(ctx, key)
	r.mu.Lock()
	r.readers++
	n := r.readers
	if n == 2 {
		close(r.ready)
	}
	r.mu.Unlock()
	if n <= 2 {
		<-r.ready
	}
	return doc, err
}

func TestService_ConcurrentDisjointUpdatesBothSurvive(t *testing.T) {
	ctx := context.Background()
	store := newRaceStore()
	docID := seed(t, store, "k", `[{"id":"1","v":0},{"id":"2","v":0}]`)
	svc := New(store)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{"1", "2"} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = svc.Update(ctx, "k", id, "v", json.RawMessage(`1`))
		}(i, id)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	body, version := storedBody(t, store, docID)
	require.JSONEq(t, `[{"id":"1","v":1},{"id":"2","v":1}]`, body)
	require.Equal(t, int64(3), version)
}

func TestService_ConflictWithoutRetries(t *testing.T) {
	ctx := context.Background()
	store := newRaceStore()
	docID := seed(t, store, "k", `[{"id":"1","v":0},{"id":"2","v":0}]`)
	svc := New(store, WithMaxRetries(0))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{"1", "2"} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = svc.Update(ctx, "k", id, "v", json.RawMessage(`1`))
		}(i, id)
	}
	wg.Wait()

	conflicts := 0
	for _, err := range errs {
		if errors.Is(err, ErrConflict) {
			conflicts++
		} else {
			require.NoError(t, err)
		}
	}
	require.Equal(t, 1, conflicts)
	_, version := storedBody(t, store, docID)
	require.Equal(t, int64(2), version)
}

type brokenStore struct {
	*repository.MemoryRepo
}

func (brokenStore) FindByKey(context.Context, string) (*content.Document, error) {
	return nil, errors.New("connection reset")
}

func TestService_StoreFailureIsNotNotFound(t *testing.T) {
	svc := New(brokenStore{repository.NewMemoryRepo()})
	res, err := svc.List(context.Background(), "k", "", "")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
	require.Equal(t, "error", Outcome(res, err))
}

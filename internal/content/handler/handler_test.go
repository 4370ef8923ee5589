package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/contentstore/internal/content"
	"github.com/gogotex/contentstore/internal/content/repository"
	"github.com/gogotex/contentstore/internal/content/service"
	"github.com/gogotex/contentstore/internal/replica"
	"github.com/stretchr/testify/require"
)

type counterIDs struct{ n int }

func (g *counterIDs) NewID() string {
	g.n++
	return fmt.Sprintf("new-%d", g.n)
}

func setup(t *testing.T, body string, opts ...service.Option) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := repository.NewMemoryRepo()
	ctx := context.Background()
	id, err := store.CreateDocument(ctx, &content.Document{Body: json.RawMessage(body)})
	require.NoError(t, err)
	require.NoError(t, store.BindKey(ctx, "tenant", id))

	opts = append([]service.Option{service.WithIDGenerator(&counterIDs{})}, opts...)
	g := gin.New()
	RegisterContentRoutes(g, service.New(store, opts...))
	return g, id
}

func do(g *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func envelope(t *testing.T, w *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var env struct {
		Message string          `json:"message"`
		Content json.RawMessage `json:"content"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Message, string(env.Content)
}

func TestContentHandler_Scenario(t *testing.T) {
	g, docID := setup(t, `[{"id":"1","name":"Alice","age":30},{"id":"2","name":"bob","age":25}]`)

	w := do(g, http.MethodGet, "/api/v1/content/tenant/all?key=name&value=BOB", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, docID, w.Header().Get(HeaderContentID))
	msg, c := envelope(t, w)
	require.Equal(t, MsgFetched, msg)
	require.JSONEq(t, `[{"id":"2","name":"bob","age":25}]`, c)

	w = do(g, http.MethodPut, "/api/v1/content/tenant/1", `{"key":"age","value":31}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "true", w.Header().Get(HeaderReplicaSynced))
	msg, c = envelope(t, w)
	require.Equal(t, MsgUpdated, msg)
	require.JSONEq(t, `{"id":"1","name":"Alice","age":31}`, c)

	w = do(g, http.MethodPost, "/api/v1/content/tenant", `{"clear":false,"data":{"name":"Carol"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	msg, c = envelope(t, w)
	require.Equal(t, MsgUpdated, msg)
	require.JSONEq(t, `{"id":"new-1","name":"Carol"}`, c)

	w = do(g, http.MethodDelete, "/api/v1/content/tenant/age=25", "")
	require.Equal(t, http.StatusOK, w.Code)
	msg, c = envelope(t, w)
	require.Equal(t, MsgDeleted, msg)
	require.Equal(t, "null", c)

	w = do(g, http.MethodGet, "/api/v1/content/tenant/all", "")
	_, c = envelope(t, w)
	require.JSONEq(t, `[{"id":"1","name":"Alice","age":31},{"id":"new-1","name":"Carol"}]`, c)

	w = do(g, http.MethodGet, "/api/v1/content/tenant/new-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	_, c = envelope(t, w)
	require.JSONEq(t, `{"id":"new-1","name":"Carol"}`, c)
}

func TestContentHandler_NotFound(t *testing.T) {
	g, docID := setup(t, `[{"id":"1"}]`)

	w := do(g, http.MethodGet, "/api/v1/content/nobody/all", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Header(), HeaderContentID)
	require.Empty(t, w.Header().Get(HeaderContentID))
	msg, c := envelope(t, w)
	require.Equal(t, MsgNotFound, msg)
	require.Equal(t, "null", c)

	w = do(g, http.MethodGet, "/api/v1/content/tenant/42", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, docID, w.Header().Get(HeaderContentID))

	w = do(g, http.MethodPut, "/api/v1/content/tenant/42", `{"key":"a","value":1}`)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestContentHandler_InvalidInput(t *testing.T) {
	g, _ := setup(t, `[{"id":"1"}]`)

	cases := []struct {
		method, path, body string
	}{
		{http.MethodPut, "/api/v1/content/tenant/1", `{"value":1}`},
		{http.MethodPut, "/api/v1/content/tenant/1", `{"key":"a"}`},
		{http.MethodPut, "/api/v1/content/tenant/1", `not json`},
		{http.MethodPost, "/api/v1/content/tenant", `{"data":7}`},
		{http.MethodPost, "/api/v1/content/tenant", `{"clear":"yes"}`},
		{http.MethodDelete, "/api/v1/content/tenant/no-equals-sign", ""},
	}
	for _, tc := range cases {
		w := do(g, tc.method, tc.path, tc.body)
		require.Equal(t, http.StatusBadRequest, w.Code, "%s %s %s", tc.method, tc.path, tc.body)
		msg, c := envelope(t, w)
		require.Equal(t, MsgInvalid, msg)
		require.Equal(t, "null", c)
	}
}

func TestContentHandler_AppendToScalar(t *testing.T) {
	g, docID := setup(t, `{"title":"notes"}`)

	w := do(g, http.MethodPost, "/api/v1/content/tenant", `{"data":{"a":1}}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, docID, w.Header().Get(HeaderContentID))
	require.Empty(t, w.Header().Get(HeaderReplicaSynced))
	msg, c := envelope(t, w)
	require.Equal(t, MsgFetched, msg)
	require.JSONEq(t, `[]`, c)

	w = do(g, http.MethodGet, "/api/v1/content/tenant/all", "")
	_, c = envelope(t, w)
	require.JSONEq(t, `{"title":"notes"}`, c)
}

func TestContentHandler_Replace(t *testing.T) {
	g, _ := setup(t, `[{"id":"1"}]`)

	w := do(g, http.MethodPost, "/api/v1/content/tenant", `{"clear":true,"data":{"title":"fresh"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	msg, c := envelope(t, w)
	require.Equal(t, MsgUpdated, msg)
	require.JSONEq(t, `{"title":"fresh"}`, c)

	// filtering a scalar yields the neutral value
	w = do(g, http.MethodGet, "/api/v1/content/tenant/all?key=title&value=fresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	_, c = envelope(t, w)
	require.Equal(t, "null", c)
}

func TestContentHandler_SyncPending(t *testing.T) {
	failing := replica.SyncFunc(func(context.Context, *content.Document) error {
		return errors.New("replica down")
	})
	g, _ := setup(t, `[{"id":"1","a":1}]`, service.WithSyncer(failing))

	w := do(g, http.MethodPut, "/api/v1/content/tenant/1", `{"key":"a","value":2}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, "false", w.Header().Get(HeaderReplicaSynced))
	msg, c := envelope(t, w)
	require.Equal(t, MsgSyncPending, msg)
	require.JSONEq(t, `{"id":"1","a":2}`, c)

	// the write is committed regardless
	w = do(g, http.MethodGet, "/api/v1/content/tenant/1", "")
	_, c = envelope(t, w)
	require.JSONEq(t, `{"id":"1","a":2}`, c)
}

type stubService struct {
	Service
	err error
}

func (s stubService) List(context.Context, string, string, string) (*service.Result, error) {
	return &service.Result{DocumentID: "doc"}, s.err
}

func TestContentHandler_ErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{service.ErrConflict, http.StatusConflict, MsgConflict},
		{fmt.Errorf("resolve key: %w", errors.New("connection refused")), http.StatusInternalServerError, MsgInternal},
		{fmt.Errorf("%w: bad", service.ErrInvalidInput), http.StatusBadRequest, MsgInvalid},
	}
	for _, tc := range cases {
		g := gin.New()
		RegisterContentRoutes(g, stubService{err: tc.err})
		w := do(g, http.MethodGet, "/api/v1/content/k/all", "")
		require.Equal(t, tc.status, w.Code)
		require.Equal(t, "doc", w.Header().Get(HeaderContentID))
		msg, c := envelope(t, w)
		require.Equal(t, tc.msg, msg)
		require.Equal(t, "null", c)
	}
}

package notes

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo Repository) http.Handler {
	h := NewHandler(repo, slog.New(slog.DiscardHandler))
	r := chi.NewRouter()
	r.Route("/api/notes", h.Routes)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeNote(t *testing.T, rec *httptest.ResponseRecorder) Note {
	t.Helper()
	var n Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &n))
	return n
}

func TestHandler_CRUD(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(NewMemoryRepository())

	rec := do(t, router, http.MethodPost, "/api/notes", `{"title":"todo","content":"ship it","tags":["work"]}`)
	req.Equal(http.StatusCreated, rec.Code)
	created := decodeNote(t, rec)
	req.Equal("todo", created.Title)

	rec = do(t, router, http.MethodGet, "/api/notes/"+created.ID, "")
	req.Equal(http.StatusOK, rec.Code)
	req.Equal(created.ID, decodeNote(t, rec).ID)

	rec = do(t, router, http.MethodPut, "/api/notes/"+created.ID, `{"content":"shipped"}`)
	req.Equal(http.StatusOK, rec.Code)
	updated := decodeNote(t, rec)
	req.Equal("todo", updated.Title)
	req.Equal("shipped", updated.Content)

	rec = do(t, router, http.MethodGet, "/api/notes", "")
	req.Equal(http.StatusOK, rec.Code)
	var list []Note
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &list))
	req.Len(list, 1)

	rec = do(t, router, http.MethodDelete, "/api/notes/"+created.ID, "")
	req.Equal(http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/notes/"+created.ID, "")
	req.Equal(http.StatusNotFound, rec.Code)
}

func TestHandler_EmptyListIsArray(t *testing.T) {
	rec := do(t, newTestRouter(NewMemoryRepository()), http.MethodGet, "/api/notes", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandler_CreateRejectsBadInput(t *testing.T) {
	router := newTestRouter(NewMemoryRepository())

	cases := map[string]string{
		"missing title": `{"content":"x"}`,
		"blank title":   `{"title":"   "}`,
		"malformed":     `{"title":`,
		"unknown field": `{"title":"x","color":"red"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/notes", body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestHandler_UpdateRejectsBlankTitle(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(NewMemoryRepository())
	created := decodeNote(t, do(t, router, http.MethodPost, "/api/notes", `{"title":"keep"}`))

	rec := do(t, router, http.MethodPut, "/api/notes/"+created.ID, `{"title":"  "}`)

	req.Equal(http.StatusBadRequest, rec.Code)
	got := decodeNote(t, do(t, router, http.MethodGet, "/api/notes/"+created.ID, ""))
	req.Equal("keep", got.Title)
}

func TestHandler_UnknownIDs(t *testing.T) {
	router := newTestRouter(NewMemoryRepository())

	require.Equal(t, http.StatusNotFound, do(t, router, http.MethodPut, "/api/notes/nope", `{"content":"x"}`).Code)
	require.Equal(t, http.StatusNotFound, do(t, router, http.MethodDelete, "/api/notes/nope", "").Code)
}

type brokenRepository struct{ Repository }

func (brokenRepository) List(context.Context) ([]Note, error) {
	return nil, errors.New("connection refused")
}

func TestHandler_RepositoryFailure(t *testing.T) {
	rec := do(t, newTestRouter(brokenRepository{}), http.MethodGet, "/api/notes", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"Failed to list note"}`, rec.Body.String())
}

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "bookshelf/docs"
	"bookshelf/internal/auth"
	"bookshelf/internal/config"
	"bookshelf/internal/dto"
	"bookshelf/internal/view"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() config.Config {
	var cfg config.Config
	cfg.App.Env = "test"
	cfg.App.Version = "test"
	cfg.Storage.Driver = config.DriverMemory
	cfg.Storage.Key = "BOOKSHELF_APPS"
	return cfg
}

func newTestApp(t *testing.T, cfg config.Config, opts ...Option) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	a, err := New(context.Background(), cfg, zap.NewNop(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

type client struct {
	t     *testing.T
	h     http.Handler
	token string
}

func (c client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func addBook(t *testing.T, c client, title string, year any) dto.BookResponse {
	t.Helper()
	w := c.do(http.MethodPost, "/api/v1/books", map[string]any{
		"title": title, "author": "Frank Herbert", "year": year,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.BookResponse](t, w)
}

func TestBooksAPI(t *testing.T) {
	a := newTestApp(t, testConfig())
	c := client{t: t, h: a.Router()}

	dune := addBook(t, c, "Dune", 1965)
	assert.Equal(t, 1965, dune.Year)
	assert.Equal(t, "incomplete", dune.Shelf)
	messiah := addBook(t, c, "Dune Messiah", "1969")
	assert.Greater(t, messiah.ID, dune.ID)

	w := c.do(http.MethodPost, "/api/v1/books", map[string]any{"title": "Emma", "author": "Jane Austen", "year": "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 2, a.Books.Len())

	w = c.do(http.MethodPost, fmt.Sprintf("/api/v1/books/%d/toggle", dune.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[dto.BookResponse](t, w).IsComplete)

	w = c.do(http.MethodGet, "/api/v1/books", nil)
	list := decode[dto.ListBooksResponse](t, w)
	require.Len(t, list.Items, 2)
	assert.Equal(t, dune.ID, list.Items[0].ID)

	w = c.do(http.MethodGet, "/api/v1/shelves?q=DUNE", nil)
	require.Equal(t, http.StatusOK, w.Code)
	shelves := decode[dto.ShelvesResponse](t, w)
	assert.Equal(t, "DUNE", shelves.Query)
	require.Len(t, shelves.Complete, 1)
	require.Len(t, shelves.Incomplete, 1)
	assert.Equal(t, "Dune Messiah", shelves.Incomplete[0].Title)

	w = c.do(http.MethodPatch, fmt.Sprintf("/api/v1/books/%d", dune.ID), map[string]any{"year": 1966})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1966, decode[dto.BookResponse](t, w).Year)

	w = c.do(http.MethodPatch, fmt.Sprintf("/api/v1/books/%d", dune.ID), map[string]any{"year": "soon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/api/v1/books/42", nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodPost, "/api/v1/books/42/toggle", nil).Code)
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodGet, "/api/v1/books/abc", nil).Code)
}

func TestDeleteDialog(t *testing.T) {
	a := newTestApp(t, testConfig())
	c := client{t: t, h: a.Router()}
	dune := addBook(t, c, "Dune", 1965)
	path := fmt.Sprintf("/api/v1/books/%d", dune.ID)

	w := c.do(http.MethodDelete, path, nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	d := decode[dto.DialogResponse](t, w)
	assert.Equal(t, "delete", d.Kind)
	assert.Equal(t, "/api/v1/dialogs/"+d.Token, d.Respond)
	assert.Equal(t, "Yes, delete", d.Prompt.ConfirmLabel)

	w = c.do(http.MethodGet, d.Respond, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = c.do(http.MethodPost, d.Respond, dto.AnswerRequest{Accept: false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[dto.DialogDoneResponse](t, w).Done)
	assert.Equal(t, 1, a.Books.Len())

	// answered dialogs are gone
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodPost, d.Respond, dto.AnswerRequest{Accept: true}).Code)
	assert.Equal(t, 1, a.Books.Len())

	d = decode[dto.DialogResponse](t, c.do(http.MethodDelete, path, nil))
	w = c.do(http.MethodPost, d.Respond, dto.AnswerRequest{Accept: true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, a.Books.Len())
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodDelete, path, nil).Code)
}

func TestEditWizard(t *testing.T) {
	a := newTestApp(t, testConfig())
	c := client{t: t, h: a.Router()}
	dune := addBook(t, c, "Dune", 1965)

	w := c.do(http.MethodPost, fmt.Sprintf("/api/v1/books/%d/edit", dune.ID), nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	d := decode[dto.DialogResponse](t, w)
	assert.Equal(t, 1, d.Step)
	assert.Equal(t, 3, d.Steps)
	require.NotNil(t, d.Prompt.Input)
	assert.Equal(t, "Dune", d.Prompt.Input.Value)

	for i, value := range []string{"Dune Messiah", "Frank Herbert"} {
		w = c.do(http.MethodPost, d.Respond, dto.AnswerRequest{Accept: true, Value: value})
		require.Equal(t, http.StatusAccepted, w.Code)
		d = decode[dto.DialogResponse](t, w)
		assert.Equal(t, i+2, d.Step)
	}
	assert.Equal(t, "1965", d.Prompt.Input.Value)

	w = c.do(http.MethodPost, d.Respond, dto.AnswerRequest{Accept: true, Value: "1969"})
	require.Equal(t, http.StatusOK, w.Code)

	got, ok := a.Books.FindByID(dune.ID)
	require.True(t, ok)
	assert.Equal(t, "Dune Messiah", got.Title)
	assert.Equal(t, 1969, got.Year)

	// cancelling a step leaves the book alone
	d = decode[dto.DialogResponse](t, c.do(http.MethodPost, fmt.Sprintf("/api/v1/books/%d/edit", dune.ID), nil))
	assert.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, d.Respond, nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodDelete, d.Respond, nil).Code)
	after, _ := a.Books.FindByID(dune.ID)
	assert.Equal(t, got, after)
}

func TestNoticesEndpoint(t *testing.T) {
	a := newTestApp(t, testConfig())
	c := client{t: t, h: a.Router()}
	addBook(t, c, "Dune", 1965)
	c.do(http.MethodPost, "/api/v1/books", map[string]any{"title": "Emma", "author": "Jane Austen", "year": "x"})

	w := c.do(http.MethodGet, "/api/v1/notices", nil)
	require.Equal(t, http.StatusOK, w.Code)
	notices := decode[dto.ListNoticesResponse](t, w)
	require.Len(t, notices.Items, 2)
	assert.Equal(t, "success", notices.Items[0].Severity)
	assert.Equal(t, "error", notices.Items[1].Severity)
	assert.Equal(t, "Year must be a number", notices.Items[1].Message)

	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodGet, "/api/v1/notices?active=maybe", nil).Code)
}

func TestTokenAuth(t *testing.T) {
	hash, err := auth.HashToken("s3cret")
	require.NoError(t, err)
	cfg := testConfig()
	cfg.Auth.TokenHash = hash
	a := newTestApp(t, cfg)

	anon := client{t: t, h: a.Router()}
	w := anon.do(http.MethodPost, "/api/v1/books", map[string]any{"title": "Dune", "author": "Frank Herbert", "year": 1965})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/api/v1/books", nil).Code)

	addBook(t, client{t: t, h: a.Router(), token: "s3cret"}, "Dune", 1965)
	assert.Equal(t, 1, a.Books.Len())
}

func TestServiceEndpoints(t *testing.T) {
	a := newTestApp(t, testConfig())
	c := client{t: t, h: a.Router()}
	addBook(t, c, "Dune", 1965)

	w := c.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[map[string]any](t, w)
	assert.Equal(t, true, health["ok"])
	assert.Equal(t, false, health["memory_only"])
	assert.EqualValues(t, 1, health["books"])

	w = c.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `bookshelf_mutations_total{op="add"} 1`)
	assert.Contains(t, w.Body.String(), `bookshelf_shelf_books{shelf="incomplete"} 1`)

	w = c.do(http.MethodGet, "/swagger-doc.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "/books/{id}/toggle"))
}

func TestExtraSinkAndNotifier(t *testing.T) {
	var renders []view.Shelves
	var notices []string
	a := newTestApp(t, testConfig(),
		WithSink(view.SinkFunc(func(s view.Shelves) { renders = append(renders, s) })),
		WithNotifier(notifierFunc(func(msg string) { notices = append(notices, msg) })),
	)
	// the initial load renders once
	require.Len(t, renders, 1)

	_, err := a.Books.Add(context.Background(), "Dune", "Frank Herbert", "1965", false)
	require.NoError(t, err)
	require.Len(t, renders, 2)
	assert.Len(t, renders[1].Incomplete, 1)

	a.Controller.Search("nothing matches")
	require.Len(t, renders, 3)
	assert.Equal(t, 0, renders[2].Len())
	assert.Empty(t, notices)
}

func TestUnreadableStorageDegrades(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Driver = config.DriverFile
	cfg.Storage.Dir = t.TempDir()
	// the first app writes garbage through the file backend
	require.NoError(t, writeRaw(cfg.Storage.Dir, cfg.Storage.Key, "{not json"))

	a := newTestApp(t, cfg)
	assert.True(t, a.Books.MemoryOnly())
	assert.Equal(t, 0, a.Books.Len())
	recent := a.Notices.Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, "Storage is unavailable, changes will not be saved", recent[0].Message)
}

func TestCloseStopsWaitingWhenContextEnds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := New(context.Background(), testConfig(), zap.NewNop())
	require.NoError(t, err)

	unblock := make(chan struct{})
	released := make(chan struct{})
	a.close = append(a.close, func() error {
		<-unblock
		close(released)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = a.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(unblock)
	<-released
}

func TestCloseReportsCloserErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := New(context.Background(), testConfig(), zap.NewNop())
	require.NoError(t, err)
	a.close = append(a.close, func() error { return errors.New("flush failed") })

	err = a.Close(context.Background())
	assert.EqualError(t, err, "flush failed")
	assert.NoError(t, a.Close(context.Background()), "second close has nothing left to release")
}

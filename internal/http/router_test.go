package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chadjholmes/bookends/internal/clock"
	"github.com/chadjholmes/bookends/internal/database"
	booksrepo "github.com/chadjholmes/bookends/internal/database/books"
	goalsrepo "github.com/chadjholmes/bookends/internal/database/goals"
	sessionsrepo "github.com/chadjholmes/bookends/internal/database/sessions"
	"github.com/chadjholmes/bookends/internal/entities"
	"github.com/chadjholmes/bookends/internal/goals"
	"github.com/chadjholmes/bookends/internal/recorder"
)

// testServer wires a full router over a real file-backed database, the way
// the entrypoint does, minus the metadata client and task queue.
type testServer struct {
	router   *gin.Engine
	db       *database.Database
	books    *booksrepo.Repository
	sessions *sessionsrepo.Repository
	goals    *goalsrepo.Repository
	rec      *recorder.Recorder
	clk      *clock.Frozen
}

func setupTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_api_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	booksStore := booksrepo.NewRepository(db.DB)
	sessionsStore := sessionsrepo.NewRepository(db.DB)
	goalsStore := goalsrepo.NewRepository(db.DB)

	clk := clock.NewFrozen(time.Date(2025, 3, 16, 20, 0, 0, 0, time.UTC))
	refresher := goals.NewRefresher(goalsStore, sessionsStore)
	rec := recorder.New(clk, nil)

	router := NewRouter(RouterConfig{
		Database:      db,
		BooksStore:    booksStore,
		SessionsStore: sessionsStore,
		GoalsStore:    goalsStore,
		Recorder:      rec,
		Refresher:     refresher,
		Clock:         clk,
		Version:       "test",
	})

	server := &testServer{
		router:   router,
		db:       db,
		books:    booksStore,
		sessions: sessionsStore,
		goals:    goalsStore,
		rec:      rec,
		clk:      clk,
	}

	cleanup := func() {
		rec.Shutdown()
		db.Close()
		os.Remove(dbPath)
	}
	return server, cleanup
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func createBook(t *testing.T, s *testServer, title string, totalPages int) *entities.Book {
	t.Helper()
	book := &entities.Book{Title: title, Author: "Test Author", TotalPages: totalPages}
	require.NoError(t, s.books.Create(book))
	return book
}

func TestRouterOmitsDisabledSubsystems(t *testing.T) {
	s, cleanup := setupTestServer(t)
	defer cleanup()

	// No metadata client was configured, so those routes do not exist.
	w := s.do(t, "GET", "/api/metadata/search?q=dune", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The recorder was configured, so its routes do.
	w = s.do(t, "GET", "/api/recorder", nil)
	assert.Equal(t, http.StatusNotFound, w.Code) // idle, not missing route

	var resp ErrorResponse
	decodeBody(t, w, &resp)
	assert.Contains(t, resp.Error, "recording")
}

package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librisapp/libris-server/internal/auth"
	"github.com/librisapp/libris-server/internal/ratelimit"
	"github.com/librisapp/libris-server/internal/search"
	"github.com/librisapp/libris-server/internal/service"
	"github.com/librisapp/libris-server/internal/sse"
	"github.com/librisapp/libris-server/internal/store"
)

// envelope mirrors the response wrapper for decoding in tests.
type envelope struct {
	Data    jsontext.Value `json:"data"`
	Error   *errorPayload  `json:"error"`
	Success bool           `json:"success"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

// setupTestServer builds a full server on temporary storage.
func setupTestServer(t *testing.T) (*httptest.Server, *sse.Manager) {
	t.Helper()

	discard := slog.New(slog.DiscardHandler)
	dir := t.TempDir()

	s, err := store.New(dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	index, err := search.New(search.Options{Logger: discard})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	manager := sse.NewManager(discard)

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokenService, err := auth.NewTokenService(hex.EncodeToString(key), 15*time.Minute)
	require.NoError(t, err)

	authService := service.NewAuthService(s, tokenService, "secret", discard)
	catalogService := service.NewCatalogService(s, index, manager, discard)

	// Generous limiter so ordinary tests never trip it.
	limiter := ratelimit.New(1000, 1000)

	server := NewServer(authService, catalogService, sse.NewHandler(manager, discard), limiter, discard)

	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)

	return ts, manager
}

// doJSON issues a request with an optional JSON body and bearer token.
func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any) (*http.Response, envelope) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), "body: %s", raw)

	return resp, env
}

// registerAndLogin creates an account and returns a valid access token.
func registerAndLogin(t *testing.T, ts *httptest.Server, username string) string {
	t.Helper()

	resp, _ := doJSON(t, ts, http.MethodPost, "/api/v1/users", "", map[string]string{
		"username":      username,
		"favoriteGenre": "scifi",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env := doJSON(t, ts, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "secret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var token struct {
		Value string `json:"value"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &token))
	require.NotEmpty(t, token.Value)

	return token.Value
}

func TestServer_HealthCheck(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp, env := doJSON(t, ts, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
}

func TestServer_Login_WrongPassword(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp, _ := doJSON(t, ts, http.MethodPost, "/api/v1/users", "", map[string]string{
		"username":      "alice",
		"favoriteGenre": "scifi",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env := doJSON(t, ts, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "BAD_CREDENTIALS", env.Error.Code)
}

func TestServer_AddBook_AnonymousRejected(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp, env := doJSON(t, ts, http.MethodPost, "/api/v1/books", "", map[string]any{
		"title":     "Dune",
		"author":    "Frank Herbert",
		"published": 1965,
		"genres":    []string{"scifi"},
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)

	// Nothing was persisted.
	resp, env = doJSON(t, ts, http.MethodGet, "/api/v1/books/count", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"bookCount":0}`, string(env.Data))
}

func TestServer_AddBook_GarbledTokenIsAnonymous(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp, env := doJSON(t, ts, http.MethodPost, "/api/v1/books", "garbage-token", map[string]any{
		"title":     "Dune",
		"author":    "Frank Herbert",
		"published": 1965,
		"genres":    []string{"scifi"},
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)
}

func TestServer_AddBook_Authorized(t *testing.T) {
	ts, _ := setupTestServer(t)
	token := registerAndLogin(t, ts, "alice")

	resp, env := doJSON(t, ts, http.MethodPost, "/api/v1/books", token, map[string]any{
		"title":     "Dune",
		"author":    "Frank Herbert",
		"published": 1965,
		"genres":    []string{"scifi"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var book struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Author struct {
			Name      string `json:"name"`
			BookCount int    `json:"bookCount"`
		} `json:"author"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &book))
	assert.NotEmpty(t, book.ID)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, "Frank Herbert", book.Author.Name)
	assert.Equal(t, 1, book.Author.BookCount)
}

func TestServer_ListBooks_Filtered(t *testing.T) {
	ts, _ := setupTestServer(t)
	token := registerAndLogin(t, ts, "alice")

	for _, b := range []map[string]any{
		{"title": "Dune", "author": "Frank Herbert", "published": 1965, "genres": []string{"SciFi"}},
		{"title": "Dune Messiah", "author": "Frank Herbert", "published": 1969, "genres": []string{"scifi"}},
		{"title": "Ancillary Justice", "author": "Ann Leckie", "published": 2013, "genres": []string{"scifi", "space opera"}},
	} {
		resp, _ := doJSON(t, ts, http.MethodPost, "/api/v1/books", token, b)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	var books []struct {
		Title string `json:"title"`
	}

	resp, env := doJSON(t, ts, http.MethodGet, "/api/v1/books?genre=SCIFI", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &books))
	assert.Len(t, books, 3)

	resp, env = doJSON(t, ts, http.MethodGet, "/api/v1/books?author=Ann+Leckie&genre=space+opera", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &books))
	require.Len(t, books, 1)
	assert.Equal(t, "Ancillary Justice", books[0].Title)

	// Unknown author filter: empty list, success.
	resp, env = doJSON(t, ts, http.MethodGet, "/api/v1/books?author=Nobody", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &books))
	assert.Empty(t, books)
}

func TestServer_EditAuthor(t *testing.T) {
	ts, _ := setupTestServer(t)
	token := registerAndLogin(t, ts, "alice")

	resp, _ := doJSON(t, ts, http.MethodPost, "/api/v1/books", token, map[string]any{
		"title":     "Dune",
		"author":    "Frank Herbert",
		"published": 1965,
		"genres":    []string{"scifi"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env := doJSON(t, ts, http.MethodPatch, "/api/v1/authors", token, map[string]any{
		"name":      "Frank Herbert",
		"setBornTo": 1920,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var author struct {
		Name string `json:"name"`
		Born *int   `json:"born"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &author))
	require.NotNil(t, author.Born)
	assert.Equal(t, 1920, *author.Born)

	// Unknown author: explicit null data, still a success.
	resp, env = doJSON(t, ts, http.MethodPatch, "/api/v1/authors", token, map[string]any{
		"name":      "Nobody",
		"setBornTo": 1900,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
	assert.Equal(t, "null", string(env.Data))

	// Anonymous callers are rejected before the lookup.
	resp, env = doJSON(t, ts, http.MethodPatch, "/api/v1/authors", "", map[string]any{
		"name":      "Frank Herbert",
		"setBornTo": 1921,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)
}

func TestServer_Me(t *testing.T) {
	ts, _ := setupTestServer(t)

	// Anonymous: null data, success.
	resp, env := doJSON(t, ts, http.MethodGet, "/api/v1/users/me", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
	assert.Equal(t, "null", string(env.Data))

	token := registerAndLogin(t, ts, "alice")

	resp, env = doJSON(t, ts, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me struct {
		Username      string `json:"username"`
		FavoriteGenre string `json:"favoriteGenre"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "scifi", me.FavoriteGenre)
}

func TestServer_AuthorCount(t *testing.T) {
	ts, _ := setupTestServer(t)
	token := registerAndLogin(t, ts, "alice")

	resp, _ := doJSON(t, ts, http.MethodPost, "/api/v1/books", token, map[string]any{
		"title":     "Dune",
		"author":    "Frank Herbert",
		"published": 1965,
		"genres":    []string{"scifi"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env := doJSON(t, ts, http.MethodGet, "/api/v1/authors/count", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"authorCount":1}`, string(env.Data))
}

func TestServer_EventsStream(t *testing.T) {
	ts, _ := setupTestServer(t)
	token := registerAndLogin(t, ts, "alice")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/events", nil)
	require.NoError(t, err)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	reader := bufio.NewReader(resp.Body)

	// First frame announces the connection.
	eventType, _ := readSSEFrame(t, reader)
	require.Equal(t, "connected", eventType)

	// A book added after subscribing must arrive as a book.added frame.
	go func() {
		body, _ := json.Marshal(map[string]any{
			"title":     "Dune",
			"author":    "Frank Herbert",
			"published": 1965,
			"genres":    []string{"scifi"},
		})
		addReq, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/books", bytes.NewReader(body))
		if err != nil {
			return
		}
		addReq.Header.Set("Content-Type", "application/json")
		addReq.Header.Set("Authorization", "Bearer "+token)
		res, err := ts.Client().Do(addReq)
		if err == nil {
			_ = res.Body.Close()
		}
	}()

	eventType, data := readSSEFrame(t, reader)
	assert.Equal(t, "book.added", eventType)

	var payload struct {
		Data struct {
			BookAdded struct {
				Title string `json:"title"`
			} `json:"bookAdded"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &payload))
	assert.Equal(t, "Dune", payload.Data.BookAdded.Title)
}

// readSSEFrame reads one event/data frame from an SSE stream.
func readSSEFrame(t *testing.T, reader *bufio.Reader) (eventType, data string) {
	t.Helper()

	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")

		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && eventType != "":
			return eventType, data
		}
	}
}

func TestServer_LoginRateLimit(t *testing.T) {
	discard := slog.New(slog.DiscardHandler)
	dir := t.TempDir()

	s, err := store.New(dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	index, err := search.New(search.Options{Logger: discard})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	manager := sse.NewManager(discard)

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokenService, err := auth.NewTokenService(hex.EncodeToString(key), 15*time.Minute)
	require.NoError(t, err)

	authService := service.NewAuthService(s, tokenService, "secret", discard)
	catalogService := service.NewCatalogService(s, index, manager, discard)

	// Tiny budget so the limit trips within the test.
	limiter := ratelimit.New(0.1, 2)

	server := NewServer(authService, catalogService, sse.NewHandler(manager, discard), limiter, discard)
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)

	login := func() int {
		body := bytes.NewReader(fmt.Appendf(nil, `{"username":"ghost","password":"secret"}`))
		resp, err := http.Post(ts.URL+"/api/v1/auth/login", "application/json", body)
		require.NoError(t, err)
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusUnauthorized, login())
	assert.Equal(t, http.StatusUnauthorized, login())
	assert.Equal(t, http.StatusTooManyRequests, login())
}

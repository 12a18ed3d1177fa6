package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	gqlhandler "github.com/graphql-go/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booksearch/internal/handler"
	"booksearch/internal/model"
	"booksearch/internal/repository"
	"booksearch/internal/resolver"
	"booksearch/internal/service"
	authmw "booksearch/internal/transport/http/middleware"
)

const testSecret = "router-secret"

type noopSearcher struct{}

func (noopSearcher) Search(ctx context.Context, query string) ([]model.Book, error) {
	return []model.Book{}, nil
}

func newTestServer(t *testing.T, mutate func(*RouterConfig)) http.Handler {
	t.Helper()

	users := service.NewUserService(repository.NewMemoryUserRepository())
	auth := service.NewAuthService(users, testSecret, time.Hour)
	catalogService := service.NewCatalogService(noopSearcher{}, nil)

	schema, err := resolver.NewSchema(resolver.New(resolver.Config{
		Users:   users,
		Auth:    auth,
		Catalog: catalogService,
	}))
	require.NoError(t, err)

	cfg := RouterConfig{
		GraphQL:        gqlhandler.New(&gqlhandler.Config{Schema: &schema}),
		UserHandler:    handler.NewUserHandler(auth, users, false),
		CatalogHandler: handler.NewCatalogHandler(catalogService, false),
		JWTSecret:      testSecret,
		CORSOrigins:    []string{"*"},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewRouter(cfg)
}

func postJSON(h http.Handler, path, token string, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	h := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_GraphQLUsesBearerIdentity(t *testing.T) {
	h := newTestServer(t, nil)

	rec := postJSON(h, "/graphql", "", map[string]interface{}{
		"query": `mutation { addUser(username: "alice", email: "a@x.com", password: "pw1") { token } }`,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var signup struct {
		Data struct {
			AddUser struct {
				Token string `json:"token"`
			} `json:"addUser"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signup))
	token := signup.Data.AddUser.Token
	require.NotEmpty(t, token)

	meQuery := map[string]interface{}{"query": `{ me { username } }`}

	rec = postJSON(h, "/graphql", token, meQuery)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)

	rec = postJSON(h, "/graphql", "", meQuery)
	assert.Contains(t, rec.Body.String(), `"UNAUTHENTICATED"`)
}

func TestRouter_ProtectedRESTRoutes(t *testing.T) {
	h := newTestServer(t, nil)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/users/me"},
		{http.MethodPut, "/users/books"},
		{http.MethodDelete, "/users/books/B1"},
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouter_RateLimitsCredentialEndpoints(t *testing.T) {
	h := newTestServer(t, func(cfg *RouterConfig) {
		cfg.AuthLimiter = authmw.NewRateLimiter(0.001, 1)
	})

	body := map[string]string{"username": "ghost", "password": "pw"}
	first := postJSON(h, "/users/login", "", body)
	assert.Equal(t, http.StatusNotFound, first.Code)

	second := postJSON(h, "/users/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// read routes are not limited
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RateLimitIgnoresForwardedForByDefault(t *testing.T) {
	login := func(h http.Handler, forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/users/login", bytes.NewBufferString(`{"username":"ghost","password":"pw"}`))
		req.RemoteAddr = "192.0.2.10:4321"
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	h := newTestServer(t, func(cfg *RouterConfig) {
		cfg.AuthLimiter = authmw.NewRateLimiter(0.001, 1)
	})
	assert.Equal(t, http.StatusNotFound, login(h, "203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, login(h, "203.0.113.2"), "a fresh forwarded address must not reset the budget")

	trusted := newTestServer(t, func(cfg *RouterConfig) {
		cfg.AuthLimiter = authmw.NewRateLimiter(0.001, 1)
		cfg.TrustProxyHeaders = true
	})
	assert.Equal(t, http.StatusNotFound, login(trusted, "203.0.113.1"))
	assert.Equal(t, http.StatusNotFound, login(trusted, "203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, login(trusted, "203.0.113.1"))
}

func TestRouter_ServesClientWithFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	h := newTestServer(t, func(cfg *RouterConfig) {
		cfg.ServeClient = true
		cfg.ClientDistDir = dir
	})

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/app.js")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "console.log")

	rec = get("/saved")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "app</html>")

	rec = get("/health")
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_NoClientOutsideProduction(t *testing.T) {
	h := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/saved", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

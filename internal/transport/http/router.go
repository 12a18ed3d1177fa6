package http

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"booksearch/internal/handler"
	"booksearch/internal/httputil"
	authmw "booksearch/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	GraphQL        http.Handler
	UserHandler    *handler.UserHandler
	CatalogHandler *handler.CatalogHandler
	JWTSecret      string
	AuthLimiter    *authmw.RateLimiter // nil disables rate limiting
	CORSOrigins    []string
	// ClientDistDir is served with an index.html fallback when ServeClient is set.
	ClientDistDir string
	ServeClient   bool
	// TrustProxyHeaders takes the client address from X-Forwarded-For /
	// X-Real-IP. Only enable behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Every route sees the identity if a valid token was sent; handlers decide.
	r.Use(authmw.OptionalAuth(cfg.JWTSecret))

	limit := func(next http.Handler) http.Handler { return next }
	if cfg.AuthLimiter != nil {
		limit = cfg.AuthLimiter.Middleware
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Handle("/graphql", cfg.GraphQL)

	r.Route("/users", func(r chi.Router) {
		r.With(limit).Post("/", cfg.UserHandler.Create)
		r.With(limit).Post("/login", cfg.UserHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireAuth)

			r.Get("/me", cfg.UserHandler.Me)
			r.Put("/books", cfg.UserHandler.SaveBook)
			r.Delete("/books/{bookId}", cfg.UserHandler.DeleteBook)
		})

		r.Get("/{username}", cfg.UserHandler.GetByUsername)
	})

	r.Get("/api/books/search", cfg.CatalogHandler.Search)

	if cfg.ServeClient {
		r.Handle("/*", spaHandler(cfg.ClientDistDir))
	}

	return r
}

// spaHandler serves files from dir and falls back to index.html for
// client-side routes.
func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			httputil.WriteNotFound(w, "Not found")
			return
		}

		p := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/") {
			httputil.WriteNotFound(w, "Not found")
			return
		}
		http.ServeFile(w, r, index)
	})
}

package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gqlhandler "github.com/graphql-go/handler"

	"booksearch/internal/cache"
	"booksearch/internal/catalog"
	"booksearch/internal/config"
	"booksearch/internal/database"
	"booksearch/internal/handler"
	"booksearch/internal/logger"
	"booksearch/internal/redis"
	"booksearch/internal/repository"
	"booksearch/internal/resolver"
	"booksearch/internal/service"
	authmw "booksearch/internal/transport/http/middleware"
)

const shutdownTimeout = 10 * time.Second

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.SetDefault(logger.New(logger.Config{
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage
	users, closeStore, err := openUserRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// 3. Optional catalog cache
	var catalogCache cache.CatalogCache
	if cfg.RedisURL != "" {
		rc, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rc.Close()
		catalogCache = cache.NewCatalogCache(rc.Client)
		slog.Info("catalog cache enabled")
	}

	// 4. Services
	userService := service.NewUserService(users)
	authService := service.NewAuthService(userService, cfg.JWTSecret, cfg.TokenMaxAge)
	catalogService := service.NewCatalogService(catalog.NewClient(cfg.GoogleBooksURL, cfg.GoogleBooksAPIKey), catalogCache)

	// 5. API
	schema, err := resolver.NewSchema(resolver.New(resolver.Config{
		Users:       userService,
		Auth:        authService,
		Catalog:     catalogService,
		DebugErrors: cfg.DebugErrors,
	}))
	if err != nil {
		return fmt.Errorf("failed to build graphql schema: %w", err)
	}

	var limiter *authmw.RateLimiter
	if cfg.AuthRateLimit > 0 {
		limiter = authmw.NewRateLimiter(cfg.AuthRateLimit, int(cfg.AuthRateLimit)*2)
	}

	router := NewRouter(RouterConfig{
		GraphQL: gqlhandler.New(&gqlhandler.Config{
			Schema:   &schema,
			Pretty:   true,
			GraphiQL: !cfg.IsProduction(),
		}),
		UserHandler:    handler.NewUserHandler(authService, userService, cfg.DebugErrors),
		CatalogHandler: handler.NewCatalogHandler(catalogService, cfg.DebugErrors),
		JWTSecret:      cfg.JWTSecret,
		AuthLimiter:    limiter,
		CORSOrigins:    cfg.CORSOrigins,
		ClientDistDir:  cfg.ClientDistDir,
		ServeClient:    cfg.IsProduction(),

		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server running", "port", cfg.ServerPort, "graphql", "/graphql", "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// openUserRepository picks the store named by DB_DRIVER. The returned
// func releases it.
func openUserRepository(ctx context.Context, cfg *config.Config) (repository.UserRepository, func(), error) {
	if cfg.DBDriver == config.DriverMemory {
		slog.Warn("using in-memory user store, data is lost on restart")
		return repository.NewMemoryUserRepository(), func() {}, nil
	}

	client, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			slog.Warn("failed to disconnect database", "error", err)
		}
	}

	db := client.Database(cfg.MongoDatabase)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		closeFn()
		return nil, nil, err
	}

	return repository.NewUserRepository(db), closeFn, nil
}

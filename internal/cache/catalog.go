package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"booksearch/internal/model"
)

const (
	// CatalogCachePrefix is the key prefix for cached catalog searches
	CatalogCachePrefix = "catalog:search:"

	// CatalogCacheTTL bounds how stale a cached search may get
	CatalogCacheTTL = time.Hour
)

// CatalogCache stores catalog search results by normalized query.
type CatalogCache interface {
	// Get returns (books, found, error). found=false on a cache miss.
	Get(ctx context.Context, query string) ([]model.Book, bool, error)
	Set(ctx context.Context, query string, books []model.Book) error
}

// RedisCatalogCache implements CatalogCache with JSON string values.
type RedisCatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache creates a CatalogCache backed by Redis.
func NewCatalogCache(client *redis.Client) CatalogCache {
	return &RedisCatalogCache{client: client, ttl: CatalogCacheTTL}
}

// catalogKey lowercases and collapses whitespace so equivalent queries share an entry.
func catalogKey(query string) string {
	return CatalogCachePrefix + strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

func (c *RedisCatalogCache) Get(ctx context.Context, query string) ([]model.Book, bool, error) {
	key := catalogKey(query)

	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get catalog cache: %w", err)
	}

	var books []model.Book
	if err := json.Unmarshal(raw, &books); err != nil {
		// a corrupt entry is a miss; the next Set overwrites it
		slog.Warn("catalog cache entry unreadable", "key", key, "error", err)
		return nil, false, nil
	}
	return books, true, nil
}

func (c *RedisCatalogCache) Set(ctx context.Context, query string, books []model.Book) error {
	raw, err := json.Marshal(books)
	if err != nil {
		return fmt.Errorf("encode catalog cache: %w", err)
	}

	if err := c.client.Set(ctx, catalogKey(query), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set catalog cache: %w", err)
	}
	return nil
}

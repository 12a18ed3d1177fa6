package service

import (
	"context"
	"log/slog"

	"booksearch/internal/cache"
	"booksearch/internal/model"
)

// CatalogSearcher is satisfied by catalog.Client
type CatalogSearcher interface {
	Search(ctx context.Context, query string) ([]model.Book, error)
}

// CatalogService fronts the external catalog with an optional cache.
type CatalogService struct {
	searcher CatalogSearcher
	cache    cache.CatalogCache // nil disables caching
}

func NewCatalogService(searcher CatalogSearcher, c cache.CatalogCache) *CatalogService {
	return &CatalogService{searcher: searcher, cache: c}
}

// Search serves from cache when possible. Cache failures are logged and
// never fail the search.
func (s *CatalogService) Search(ctx context.Context, query string) ([]model.Book, error) {
	if s.cache != nil {
		books, found, err := s.cache.Get(ctx, query)
		if err != nil {
			slog.Warn("catalog cache read failed", "query", query, "error", err)
		} else if found {
			return books, nil
		}
	}

	books, err := s.searcher.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && len(books) > 0 {
		if err := s.cache.Set(ctx, query, books); err != nil {
			slog.Warn("catalog cache write failed", "query", query, "error", err)
		}
	}
	return books, nil
}

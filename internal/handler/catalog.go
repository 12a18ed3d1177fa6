package handler

import (
	"net/http"
	"strings"

	"booksearch/internal/httputil"
	"booksearch/internal/service"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
	errs           httputil.ErrorWriter
}

func NewCatalogHandler(catalogService *service.CatalogService, debugErrors bool) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		errs:           httputil.ErrorWriter{Debug: debugErrors},
	}
}

// Search proxies the external book catalog
// GET /api/books/search?q=
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		httputil.WriteBadRequest(w, "Query parameter 'q' is required")
		return
	}

	books, err := h.catalogService.Search(r.Context(), query)
	if err != nil {
		h.errs.Write(w, r, err, "Failed to search books")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": books,
	})
}

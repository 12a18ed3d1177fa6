package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"booksearch/internal/httputil"
	"booksearch/internal/model"
	"booksearch/internal/service"
	"booksearch/internal/transport/http/middleware"
)

// UserHandler serves the REST account and saved-books endpoints.
type UserHandler struct {
	authService *service.AuthService
	userService *service.UserService
	errs        httputil.ErrorWriter
}

// NewUserHandler wires dependencies for the /users endpoints.
func NewUserHandler(authService *service.AuthService, userService *service.UserService, debugErrors bool) *UserHandler {
	return &UserHandler{
		authService: authService,
		userService: userService,
		errs:        httputil.ErrorWriter{Debug: debugErrors},
	}
}

// Create handles signup
// POST /users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	resp, err := h.authService.Signup(r.Context(), &req)
	if err != nil {
		h.errs.Write(w, r, err, "Failed to create user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Login accepts either username or email plus password
// POST /users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.errs.Write(w, r, err, "Failed to login")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Me returns the currently authenticated user
// GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	user, err := h.userService.GetByID(r.Context(), identity.ID)
	if err != nil {
		h.errs.Write(w, r, err, "Failed to get user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user.Safe())
}

// GetByUsername returns a public profile
// GET /users/{username}
func (h *UserHandler) GetByUsername(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.errs.Write(w, r, err, "Failed to get user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user.Safe())
}

// SaveBook adds a book to the caller's list. Saving a bookId twice is a no-op.
// PUT /users/books
func (h *UserHandler) SaveBook(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var book model.Book
	if err := json.NewDecoder(r.Body).Decode(&book); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.SaveBook(r.Context(), identity.ID, book)
	if err != nil {
		h.errs.Write(w, r, err, "Error saving book to your account")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user.Safe())
}

// DeleteBook removes a book from the caller's list
// DELETE /users/books/{bookId}
func (h *UserHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	user, err := h.userService.RemoveBook(r.Context(), identity.ID, chi.URLParam(r, "bookId"))
	if err != nil {
		h.errs.Write(w, r, err, "Error removing book from your account")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user.Safe())
}

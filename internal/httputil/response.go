package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"booksearch/internal/model"
)

// Error codes returned in the "code" field
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeValidation         = "VALIDATION"
	ErrCodeDuplicate          = "DUPLICATE"
	ErrCodeUnauthenticated    = "UNAUTHENTICATED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every failed REST call.
// Debug carries the raw error and is only set when debug errors are enabled.
type ErrorResponse struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
	Debug   string            `json:"error,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Warn("failed to encode response", "error", err)
		}
	}
}

// WriteError writes {"message": ..., "code": ...}
func WriteError(w http.ResponseWriter, status int, code string, message string) {
	WriteJSON(w, status, ErrorResponse{Message: message, Code: code})
}

// WriteBadRequest writes a 400 Bad Request error
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// WriteUnauthorized writes a 401 Unauthorized error
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, ErrCodeUnauthenticated, message)
}

// WriteNotFound writes a 404 Not Found error
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// WriteTooManyRequests writes a 429 error
func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, ErrCodeRateLimited, message)
}

// WriteInternalError writes a 500 Internal Server Error
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// ErrorWriter maps domain errors onto status codes and safe messages.
// Unexpected errors are logged; their text reaches the client only when Debug is set.
type ErrorWriter struct {
	Debug bool
}

// Write translates err. fallback is the message used for internal errors.
func (ew ErrorWriter) Write(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *model.ValidationError

	switch {
	case errors.As(err, &verr):
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Message: verr.Error(),
			Code:    ErrCodeValidation,
			Fields:  verr.Fields,
		})
	case errors.Is(err, model.ErrDuplicateUser):
		WriteError(w, http.StatusBadRequest, ErrCodeDuplicate, "A user with that email or username already exists!")
	case errors.Is(err, model.ErrUserNotFound):
		WriteNotFound(w, "Can't find this user")
	case errors.Is(err, model.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, ErrCodeInvalidCredentials, "Wrong password!")
	case errors.Is(err, model.ErrUnauthenticated):
		WriteUnauthorized(w, "Not authenticated")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		if !ew.Debug {
			WriteInternalError(w, fallback)
			return
		}
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Message: fallback,
			Code:    ErrCodeInternal,
			Debug:   err.Error(),
		})
	}
}

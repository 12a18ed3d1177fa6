package resolver

import (
	"errors"
	"log/slog"

	"booksearch/internal/model"
)

// Codes reported in a GraphQL error's extensions.code
const (
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeBadUserInput       = "BAD_USER_INPUT"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeDuplicate          = "DUPLICATE"
	CodeInternal           = "INTERNAL_SERVER_ERROR"
)

// Error is a resolver error with a safe message and a machine-readable code.
// graphql-go copies Extensions() into the response.
type Error struct {
	Message string
	Code    string
	Debug   string
	Fields  map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": e.Code}
	if len(e.Fields) > 0 {
		ext["fields"] = e.Fields
	}
	if e.Debug != "" {
		ext["debug"] = e.Debug
	}
	return ext
}

type errorMapper struct {
	debug bool
}

// wrap turns err into an *Error. fallback is the message for unexpected errors.
func (m errorMapper) wrap(err error, fallback string) error {
	var verr *model.ValidationError

	switch {
	case errors.As(err, &verr):
		return &Error{Message: verr.Error(), Code: CodeBadUserInput, Fields: verr.Fields}
	case errors.Is(err, model.ErrUnauthenticated):
		return &Error{Message: "You need to be logged in!", Code: CodeUnauthenticated}
	case errors.Is(err, model.ErrDuplicateUser):
		return &Error{Message: "A user with that email or username already exists!", Code: CodeDuplicate}
	case errors.Is(err, model.ErrUserNotFound):
		return &Error{Message: "No user found", Code: CodeNotFound}
	case errors.Is(err, model.ErrInvalidCredentials):
		return &Error{Message: "Incorrect credentials", Code: CodeInvalidCredentials}
	}

	slog.Error("resolver failed", "message", fallback, "error", err)
	e := &Error{Message: fallback, Code: CodeInternal}
	if m.debug {
		e.Debug = err.Error()
	}
	return e
}

package repository

import (
	"context"

	"booksearch/internal/model"
)

// UserRepository persists users and their embedded savedBooks.
// Ids are hex strings as carried by tokens; an unparsable id is model.ErrUserNotFound.
type UserRepository interface {
	// Create inserts a user with an already hashed password and sets its ID.
	// Returns model.ErrDuplicateUser on a username or email collision.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// GetByUsernameOrEmail matches either field; empty arguments never match.
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error)
	// AddBook appends book unless an entry with the same bookId exists.
	AddBook(ctx context.Context, userID string, book model.Book) (*model.User, error)
	// RemoveBook pulls every entry with bookID; absent bookID is not an error.
	RemoveBook(ctx context.Context, userID, bookID string) (*model.User, error)
	// ListWithSavedBooks returns users holding at least one book, oldest first.
	ListWithSavedBooks(ctx context.Context) ([]model.User, error)
}

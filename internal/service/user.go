package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"booksearch/internal/model"
	"booksearch/internal/repository"
	"booksearch/internal/validation"
)

// UserService owns the credential store rules: uniqueness, password
// hashing, and set semantics for savedBooks.
type UserService struct {
	repo      repository.UserRepository
	validator *validation.Validator
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{
		repo:      repo,
		validator: validation.New(),
	}
}

// Register creates a new user account. The password is hashed here and
// only here; no later update touches the password field.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	// Check if username or email already exists
	_, err := s.repo.GetByUsernameOrEmail(ctx, req.Username, req.Email)
	if err == nil {
		return nil, model.ErrDuplicateUser
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:   req.Username,
		Email:      req.Email,
		Password:   hashedPassword,
		SavedBooks: []model.Book{},
	}

	// Create still maps a unique-index collision to ErrDuplicateUser for concurrent signups
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrDuplicateUser) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates by email or username. Unknown users yield
// ErrUserNotFound, a wrong password ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if req.Identifier() == "" {
		return nil, model.NewValidationError("email", "is required")
	}
	if req.Password == "" {
		return nil, model.NewValidationError("password", "is required")
	}

	user, err := s.repo.GetByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !VerifyPassword(user.Password, req.Password) {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByUsername retrieves a user by username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, model.NewValidationError("username", "is required")
	}
	return s.repo.GetByUsername(ctx, username)
}

// SaveBook adds book to the user's list unless its bookId is already there.
func (s *UserService) SaveBook(ctx context.Context, userID string, book model.Book) (*model.User, error) {
	if err := s.validator.Validate(book); err != nil {
		return nil, err
	}
	return s.repo.AddBook(ctx, userID, book)
}

// RemoveBook drops bookID from the user's list; an absent bookID is a no-op.
func (s *UserService) RemoveBook(ctx context.Context, userID, bookID string) (*model.User, error) {
	if bookID == "" {
		return nil, model.NewValidationError("bookId", "is required")
	}
	return s.repo.RemoveBook(ctx, userID, bookID)
}

// ListBooks returns every saved book across all users, one entry per
// bookId, keeping the first one seen. The result is unbounded.
func (s *UserService) ListBooks(ctx context.Context) ([]model.Book, error) {
	users, err := s.repo.ListWithSavedBooks(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	books := []model.Book{}
	for _, u := range users {
		for _, b := range u.SavedBooks {
			if _, dup := seen[b.BookID]; dup {
				continue
			}
			seen[b.BookID] = struct{}{}
			books = append(books, b)
		}
	}
	return books, nil
}

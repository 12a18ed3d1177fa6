package resolver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/graphql-go/graphql"

	"booksearch/internal/model"
	"booksearch/internal/service"
	"booksearch/internal/transport/http/middleware"
)

// Resolver holds the services behind every query and mutation.
type Resolver struct {
	users   *service.UserService
	auth    *service.AuthService
	catalog *service.CatalogService
	errs    errorMapper
}

// Config carries the resolver dependencies
type Config struct {
	Users   *service.UserService
	Auth    *service.AuthService
	Catalog *service.CatalogService
	// DebugErrors adds the raw error text to internal error extensions
	DebugErrors bool
}

func New(cfg Config) *Resolver {
	return &Resolver{
		users:   cfg.Users,
		auth:    cfg.Auth,
		catalog: cfg.Catalog,
		errs:    errorMapper{debug: cfg.DebugErrors},
	}
}

type userArgs struct {
	Username string `json:"username"`
}

type searchArgs struct {
	Query string `json:"query"`
}

type addUserArgs struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginArgs struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type saveBookArgs struct {
	BookData model.Book `json:"bookData"`
}

type removeBookArgs struct {
	BookID string `json:"bookId"`
}

// decodeArgs copies the coerced GraphQL arguments into a typed struct.
func decodeArgs(args map[string]interface{}, dst interface{}) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode arguments: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return nil
}

func requireIdentity(ctx context.Context) (model.Identity, error) {
	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		return model.Identity{}, model.ErrUnauthenticated
	}
	return identity, nil
}

// Me returns the logged-in user.
func (r *Resolver) Me(p graphql.ResolveParams) (interface{}, error) {
	identity, err := requireIdentity(p.Context)
	if err != nil {
		return nil, r.errs.wrap(err, "Not logged in")
	}

	user, err := r.users.GetByID(p.Context, identity.ID)
	if err != nil {
		return nil, r.errs.wrap(err, "Failed to fetch user data")
	}
	return user.Safe(), nil
}

// Books returns every saved book across all users, one per bookId.
func (r *Resolver) Books(p graphql.ResolveParams) (interface{}, error) {
	books, err := r.users.ListBooks(p.Context)
	if err != nil {
		return nil, r.errs.wrap(err, "Failed to fetch books")
	}
	return books, nil
}

// User looks a user up by username.
func (r *Resolver) User(p graphql.ResolveParams) (interface{}, error) {
	var args userArgs
	if err := decodeArgs(p.Args, &args); err != nil {
		return nil, r.errs.wrap(err, "Failed to fetch user")
	}

	user, err := r.users.GetByUsername(p.Context, args.Username)
	if err != nil {
		return nil, r.errs.wrap(err, "Failed to fetch user")
	}
	return user.Safe(), nil
}

// SearchBooks proxies the external catalog.
func (r *Resolver) SearchBooks(p graphql.ResolveParams) (interface{}, error) {
	var args searchArgs
	if err := decodeArgs(p.Args, &args); err != nil {
		return nil, r.errs.wrap(err, "Failed to search books")
	}

	books, err := r.catalog.Search(p.Context, args.Query)
	if err != nil {
		return nil, r.errs.wrap(err, "Failed to search books")
	}
	return books, nil
}

// AddUser signs a new user up and returns their token.
func (r *Resolver) AddUser(p graphql.ResolveParams) (interface{}, error) {
	var args addUserArgs
	if err := decodeArgs(p.Args, &args); err != nil {
		return nil, r.errs.wrap(err, "Failed to create user")
	}

	resp, err := r.auth.Signup(p.Context, &model.RegisterRequest{
		Username: args.Username,
		Email:    args.Email,
		Password: args.Password,
	})
	if err != nil {
		return nil, r.errs.wrap(err, "Failed to create user")
	}
	return resp, nil
}

// Login checks email and password and returns a fresh token.
func (r *Resolver) Login(p graphql.ResolveParams) (interface{}, error) {
	var args loginArgs
	if err := decodeArgs(p.Args, &args); err != nil {
		return nil, r.errs.wrap(err, "Failed to login")
	}

	resp, err := r.auth.Login(p.Context, &model.LoginRequest{
		Email:    args.Email,
		Password: args.Password,
	})
	if err != nil {
		return nil, r.errs.wrap(err, "Failed to login")
	}
	return resp, nil
}

// SaveBook adds a book to the caller's savedBooks.
func (r *Resolver) SaveBook(p graphql.ResolveParams) (interface{}, error) {
	identity, err := requireIdentity(p.Context)
	if err != nil {
		return nil, r.errs.wrap(err, "")
	}

	var args saveBookArgs
	if err := decodeArgs(p.Args, &args); err != nil {
		return nil, r.errs.wrap(err, "Error saving book to your account")
	}

	user, err := r.users.SaveBook(p.Context, identity.ID, args.BookData)
	if err != nil {
		return nil, r.errs.wrap(err, "Error saving book to your account")
	}
	return user.Safe(), nil
}

// RemoveBook drops a book from the caller's savedBooks.
func (r *Resolver) RemoveBook(p graphql.ResolveParams) (interface{}, error) {
	identity, err := requireIdentity(p.Context)
	if err != nil {
		return nil, r.errs.wrap(err, "")
	}

	var args removeBookArgs
	if err := decodeArgs(p.Args, &args); err != nil {
		return nil, r.errs.wrap(err, "Error removing book from your account")
	}

	user, err := r.users.RemoveBook(p.Context, identity.ID, args.BookID)
	if err != nil {
		return nil, r.errs.wrap(err, "Error removing book from your account")
	}
	return user.Safe(), nil
}

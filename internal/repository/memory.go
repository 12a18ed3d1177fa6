package repository

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"booksearch/internal/model"
)

var _ UserRepository = (*memoryUserRepository)(nil)

// memoryUserRepository keeps users in process memory. Used for local
// development (DB_DRIVER=memory) and tests.
type memoryUserRepository struct {
	mu    sync.RWMutex
	order []primitive.ObjectID
	users map[primitive.ObjectID]*model.User
}

// NewMemoryUserRepository creates an empty in-memory repository
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		users: make(map[primitive.ObjectID]*model.User),
	}
}

func (r *memoryUserRepository) Create(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return model.ErrDuplicateUser
		}
	}

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.SavedBooks == nil {
		u.SavedBooks = []model.Book{}
	}

	r.users[u.ID] = clone(u, true)
	r.order = append(r.order, u.ID)
	return nil
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, model.ErrUserNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[oid]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return clone(u, false), nil
}

func (r *memoryUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if u := r.users[id]; u.Username == username {
			return clone(u, false), nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *memoryUserRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		u := r.users[id]
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return clone(u, true), nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *memoryUserRepository) AddBook(ctx context.Context, userID string, book model.Book) (*model.User, error) {
	return r.update(userID, func(u *model.User) {
		if !u.HasBook(book.BookID) {
			u.SavedBooks = append(u.SavedBooks, book)
		}
	})
}

func (r *memoryUserRepository) RemoveBook(ctx context.Context, userID, bookID string) (*model.User, error) {
	return r.update(userID, func(u *model.User) {
		kept := u.SavedBooks[:0]
		for _, b := range u.SavedBooks {
			if b.BookID != bookID {
				kept = append(kept, b)
			}
		}
		u.SavedBooks = kept
	})
}

func (r *memoryUserRepository) ListWithSavedBooks(ctx context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var users []model.User
	for _, id := range r.order {
		if u := r.users[id]; len(u.SavedBooks) > 0 {
			users = append(users, *clone(u, false))
		}
	}
	return users, nil
}

func (r *memoryUserRepository) update(userID string, fn func(u *model.User)) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, model.ErrUserNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[oid]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	fn(u)
	return clone(u, false), nil
}

// clone copies u so callers never share the stored slices
func clone(u *model.User, withPassword bool) *model.User {
	c := *u
	c.SavedBooks = make([]model.Book, len(u.SavedBooks))
	copy(c.SavedBooks, u.SavedBooks)
	if !withPassword {
		c.Password = ""
	}
	return &c
}

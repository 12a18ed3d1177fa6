package model

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the persisted user document
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username   string             `bson:"username" json:"username"`
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password" json:"-"` // bcrypt hash, never serialized
	SavedBooks []Book             `bson:"savedBooks" json:"savedBooks"`
}

// Book is embedded in a user's savedBooks array and has no identity of its own
type Book struct {
	BookID      string   `bson:"bookId" json:"bookId" validate:"required"`
	Authors     []string `bson:"authors,omitempty" json:"authors"`
	Description string   `bson:"description" json:"description" validate:"required"`
	Title       string   `bson:"title" json:"title" validate:"required"`
	Image       string   `bson:"image,omitempty" json:"image,omitempty"`
	Link        string   `bson:"link,omitempty" json:"link,omitempty"`
}

// SafeUser is the only user representation that leaves the server.
type SafeUser struct {
	ID         string `json:"_id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	SavedBooks []Book `json:"savedBooks"`
	BookCount  int    `json:"bookCount"`
}

// Safe projects the user without its password hash.
func (u *User) Safe() *SafeUser {
	books := u.SavedBooks
	if books == nil {
		books = []Book{}
	}
	return &SafeUser{
		ID:         u.ID.Hex(),
		Username:   u.Username,
		Email:      u.Email,
		SavedBooks: books,
		BookCount:  len(books),
	}
}

// Identity returns the claims a token asserts for this user.
func (u *User) Identity() Identity {
	return Identity{
		ID:       u.ID.Hex(),
		Username: u.Username,
		Email:    u.Email,
	}
}

// HasBook reports whether bookID is already in savedBooks
func (u *User) HasBook(bookID string) bool {
	for _, b := range u.SavedBooks {
		if b.BookID == bookID {
			return true
		}
	}
	return false
}

// MaxPasswordBytes is the longest input bcrypt accepts
const MaxPasswordBytes = 72

// RegisterRequest represents the data needed to register a new user
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email_shape"`
	Password string `json:"password" validate:"required,bcrypt_len"`
}

// LoginRequest represents the data needed to log in.
// GraphQL login only sends email; the REST endpoint accepts either.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Identifier returns whichever of email or username was supplied
func (r *LoginRequest) Identifier() string {
	if r.Email != "" {
		return r.Email
	}
	return r.Username
}

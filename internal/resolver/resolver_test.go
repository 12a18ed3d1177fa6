package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booksearch/internal/model"
	"booksearch/internal/repository"
	"booksearch/internal/service"
	"booksearch/internal/transport/http/middleware"
)

const testSecret = "resolver-secret"

type fakeCatalog struct {
	books []model.Book
	err   error
}

func (f *fakeCatalog) Search(ctx context.Context, query string) ([]model.Book, error) {
	return f.books, f.err
}

type harness struct {
	t      *testing.T
	schema graphql.Schema
	auth   *service.AuthService
}

func newHarness(t *testing.T, catalog service.CatalogSearcher) *harness {
	t.Helper()
	if catalog == nil {
		catalog = &fakeCatalog{}
	}

	users := service.NewUserService(repository.NewMemoryUserRepository())
	auth := service.NewAuthService(users, testSecret, time.Hour)
	r := New(Config{
		Users:   users,
		Auth:    auth,
		Catalog: service.NewCatalogService(catalog, nil),
	})

	schema, err := NewSchema(r)
	require.NoError(t, err)
	return &harness{t: t, schema: schema, auth: auth}
}

// exec runs a document, optionally as the holder of token, and decodes data into out.
func (h *harness) exec(token, query string, vars map[string]interface{}, out interface{}) []map[string]interface{} {
	h.t.Helper()

	ctx := context.Background()
	if token != "" {
		if identity, ok := h.auth.Verify(token); ok {
			ctx = middleware.WithIdentity(ctx, identity)
		}
	}

	res := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  query,
		VariableValues: vars,
		Context:        ctx,
	})

	if out != nil && res.Data != nil {
		raw, err := json.Marshal(res.Data)
		require.NoError(h.t, err)
		require.NoError(h.t, json.Unmarshal(raw, out))
	}

	var errs []map[string]interface{}
	if len(res.Errors) > 0 {
		raw, err := json.Marshal(res.Errors)
		require.NoError(h.t, err)
		require.NoError(h.t, json.Unmarshal(raw, &errs))
	}
	return errs
}

func errorCode(errs []map[string]interface{}) string {
	if len(errs) == 0 {
		return ""
	}
	ext, _ := errs[0]["extensions"].(map[string]interface{})
	code, _ := ext["code"].(string)
	return code
}

const addUserMutation = `
mutation AddUser($username: String!, $email: String!, $password: String!) {
  addUser(username: $username, email: $email, password: $password) {
    token
    user { _id username email bookCount savedBooks { bookId } }
  }
}`

const saveBookMutation = `
mutation SaveBook($book: BookInput!) {
  saveBook(bookData: $book) { _id bookCount savedBooks { bookId title authors } }
}`

type authPayload struct {
	Token string `json:"token"`
	User  struct {
		ID         string       `json:"_id"`
		Username   string       `json:"username"`
		Email      string       `json:"email"`
		BookCount  int          `json:"bookCount"`
		SavedBooks []model.Book `json:"savedBooks"`
	} `json:"user"`
}

func (h *harness) signup(username, email, password string) authPayload {
	h.t.Helper()
	var data struct {
		AddUser authPayload `json:"addUser"`
	}
	errs := h.exec("", addUserMutation, map[string]interface{}{
		"username": username, "email": email, "password": password,
	}, &data)
	require.Empty(h.t, errs)
	return data.AddUser
}

func bookVars(id string) map[string]interface{} {
	return map[string]interface{}{"book": map[string]interface{}{
		"bookId":      id,
		"title":       "Title " + id,
		"description": "About " + id,
		"authors":     []interface{}{"Someone"},
	}}
}

func TestAddUser_Scenario(t *testing.T) {
	h := newHarness(t, nil)

	got := h.signup("alice", "a@x.com", "pw1")

	assert.NotEmpty(t, got.Token)
	assert.Equal(t, "alice", got.User.Username)
	assert.NotNil(t, got.User.SavedBooks)
	assert.Empty(t, got.User.SavedBooks)
	assert.Equal(t, 0, got.User.BookCount)

	identity, ok := h.auth.Verify(got.Token)
	require.True(t, ok)
	assert.Equal(t, got.User.ID, identity.ID)
}

func TestAddUser_Duplicate(t *testing.T) {
	h := newHarness(t, nil)
	h.signup("alice", "a@x.com", "pw1")

	errs := h.exec("", addUserMutation, map[string]interface{}{
		"username": "alice", "email": "other@x.com", "password": "pw2",
	}, nil)

	assert.Equal(t, CodeDuplicate, errorCode(errs))
	assert.Equal(t, "A user with that email or username already exists!", errs[0]["message"])
}

func TestAddUser_InvalidEmail(t *testing.T) {
	h := newHarness(t, nil)

	errs := h.exec("", addUserMutation, map[string]interface{}{
		"username": "alice", "email": "not-an-email", "password": "pw1",
	}, nil)

	assert.Equal(t, CodeBadUserInput, errorCode(errs))
}

func TestAddUser_PasswordTooLongForBcrypt(t *testing.T) {
	h := newHarness(t, nil)

	errs := h.exec("", addUserMutation, map[string]interface{}{
		"username": "alice", "email": "a@x.com", "password": strings.Repeat("p", model.MaxPasswordBytes+1),
	}, nil)

	assert.Equal(t, CodeBadUserInput, errorCode(errs))
}

func TestLogin(t *testing.T) {
	h := newHarness(t, nil)
	h.signup("alice", "a@x.com", "pw1")

	const login = `mutation($email: String!, $password: String!) {
	  login(email: $email, password: $password) { token user { username } }
	}`

	var data struct {
		Login authPayload `json:"login"`
	}
	errs := h.exec("", login, map[string]interface{}{"email": "a@x.com", "password": "pw1"}, &data)
	require.Empty(t, errs)
	assert.NotEmpty(t, data.Login.Token)
	assert.Equal(t, "alice", data.Login.User.Username)

	errs = h.exec("", login, map[string]interface{}{"email": "a@x.com", "password": "wrong"}, nil)
	assert.Equal(t, CodeInvalidCredentials, errorCode(errs))

	errs = h.exec("", login, map[string]interface{}{"email": "nobody@x.com", "password": "pw1"}, nil)
	assert.Equal(t, CodeNotFound, errorCode(errs))
}

func TestMe(t *testing.T) {
	h := newHarness(t, nil)
	alice := h.signup("alice", "a@x.com", "pw1")

	var data struct {
		Me *struct {
			Username string `json:"username"`
			Email    string `json:"email"`
		} `json:"me"`
	}

	errs := h.exec("", `{ me { username } }`, nil, &data)
	assert.Equal(t, CodeUnauthenticated, errorCode(errs))

	errs = h.exec("not-a-token", `{ me { username } }`, nil, &data)
	assert.Equal(t, CodeUnauthenticated, errorCode(errs))

	errs = h.exec(alice.Token, `{ me { username email } }`, nil, &data)
	require.Empty(t, errs)
	require.NotNil(t, data.Me)
	assert.Equal(t, "alice", data.Me.Username)
	assert.Equal(t, "a@x.com", data.Me.Email)
}

func TestSaveBook_RequiresIdentity(t *testing.T) {
	h := newHarness(t, nil)

	errs := h.exec("", saveBookMutation, bookVars("B1"), nil)

	assert.Equal(t, CodeUnauthenticated, errorCode(errs))
	assert.Equal(t, "You need to be logged in!", errs[0]["message"])
}

func TestSaveAndRemoveBook(t *testing.T) {
	h := newHarness(t, nil)
	alice := h.signup("alice", "a@x.com", "pw1")

	type userPayload struct {
		BookCount  int          `json:"bookCount"`
		SavedBooks []model.Book `json:"savedBooks"`
	}

	var saved struct {
		SaveBook userPayload `json:"saveBook"`
	}
	for i := 0; i < 2; i++ {
		errs := h.exec(alice.Token, saveBookMutation, bookVars("B1"), &saved)
		require.Empty(t, errs)
	}
	assert.Equal(t, 1, saved.SaveBook.BookCount, "saving the same bookId twice keeps one entry")
	require.Len(t, saved.SaveBook.SavedBooks, 1)
	assert.Equal(t, []string{"Someone"}, saved.SaveBook.SavedBooks[0].Authors)

	const remove = `mutation($id: ID!) { removeBook(bookId: $id) { bookCount savedBooks { bookId } } }`
	var removed struct {
		RemoveBook userPayload `json:"removeBook"`
	}

	errs := h.exec(alice.Token, remove, map[string]interface{}{"id": "missing"}, &removed)
	require.Empty(t, errs)
	assert.Equal(t, 1, removed.RemoveBook.BookCount, "removing an absent book is a no-op")

	errs = h.exec(alice.Token, remove, map[string]interface{}{"id": "B1"}, &removed)
	require.Empty(t, errs)
	assert.Equal(t, 0, removed.RemoveBook.BookCount)
	assert.Empty(t, removed.RemoveBook.SavedBooks)

	errs = h.exec("", remove, map[string]interface{}{"id": "B1"}, nil)
	assert.Equal(t, CodeUnauthenticated, errorCode(errs))
}

func TestSaveBook_MissingRequiredField(t *testing.T) {
	h := newHarness(t, nil)
	alice := h.signup("alice", "a@x.com", "pw1")

	vars := map[string]interface{}{"book": map[string]interface{}{
		"bookId":      "B1",
		"title":       "",
		"description": "desc",
	}}
	errs := h.exec(alice.Token, saveBookMutation, vars, nil)

	assert.Equal(t, CodeBadUserInput, errorCode(errs))
}

func TestBooks_DeduplicatesAcrossUsers(t *testing.T) {
	h := newHarness(t, nil)
	alice := h.signup("alice", "a@x.com", "pw1")
	bob := h.signup("bob", "b@x.com", "pw2")

	for _, tc := range []struct {
		token string
		id    string
	}{
		{alice.Token, "B1"},
		{alice.Token, "B2"},
		{bob.Token, "B1"},
		{bob.Token, "B3"},
	} {
		require.Empty(t, h.exec(tc.token, saveBookMutation, bookVars(tc.id), nil))
	}

	var data struct {
		Books []model.Book `json:"books"`
	}
	errs := h.exec("", `{ books { bookId title } }`, nil, &data)
	require.Empty(t, errs)

	var ids []string
	for _, b := range data.Books {
		ids = append(ids, b.BookID)
	}
	assert.Equal(t, []string{"B1", "B2", "B3"}, ids)
}

func TestBooks_Empty(t *testing.T) {
	h := newHarness(t, nil)

	var data struct {
		Books []model.Book `json:"books"`
	}
	errs := h.exec("", `{ books { bookId } }`, nil, &data)
	require.Empty(t, errs)
	assert.NotNil(t, data.Books)
	assert.Empty(t, data.Books)
}

func TestUserQuery(t *testing.T) {
	h := newHarness(t, nil)
	h.signup("alice", "a@x.com", "pw1")

	var data struct {
		User *struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	errs := h.exec("", `{ user(username: "alice") { username } }`, nil, &data)
	require.Empty(t, errs)
	require.NotNil(t, data.User)
	assert.Equal(t, "alice", data.User.Username)

	errs = h.exec("", `{ user(username: "bob") { username } }`, nil, nil)
	assert.Equal(t, CodeNotFound, errorCode(errs))

	// username is mandatory in the schema
	errs = h.exec("", `{ user { username } }`, nil, nil)
	assert.NotEmpty(t, errs)
}

func TestUserQuery_NeverExposesPassword(t *testing.T) {
	h := newHarness(t, nil)
	h.signup("alice", "a@x.com", "pw1")

	errs := h.exec("", `{ user(username: "alice") { password } }`, nil, nil)
	assert.NotEmpty(t, errs, "password is not part of the User type")
}

func TestSearchBooks(t *testing.T) {
	catalog := &fakeCatalog{books: []model.Book{{BookID: "G1", Title: "Found", Description: "d"}}}
	h := newHarness(t, catalog)

	var data struct {
		SearchBooks []model.Book `json:"searchBooks"`
	}
	errs := h.exec("", `{ searchBooks(query: "found") { bookId title } }`, nil, &data)
	require.Empty(t, errs)
	require.Len(t, data.SearchBooks, 1)
	assert.Equal(t, "G1", data.SearchBooks[0].BookID)

	catalog.err = errors.New("upstream down")
	errs = h.exec("", `{ searchBooks(query: "found") { bookId } }`, nil, nil)
	assert.Equal(t, CodeInternal, errorCode(errs))
	assert.Equal(t, "Failed to search books", errs[0]["message"])
}

func TestErrorMapper_DebugDetail(t *testing.T) {
	err := errorMapper{debug: true}.wrap(errors.New("connection refused"), "Failed")

	var gqlErr *Error
	require.True(t, errors.As(err, &gqlErr))
	assert.Equal(t, "Failed", gqlErr.Message)
	assert.Equal(t, "connection refused", gqlErr.Extensions()["debug"])

	err = errorMapper{}.wrap(errors.New("connection refused"), "Failed")
	require.True(t, errors.As(err, &gqlErr))
	assert.NotContains(t, gqlErr.Extensions(), "debug")
}

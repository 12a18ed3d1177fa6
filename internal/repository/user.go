package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"booksearch/internal/database"
	"booksearch/internal/model"
)

// withoutPassword is applied to reads that end up in front of a caller
var withoutPassword = bson.M{"password": 0}

// userRepository implements UserRepository on a MongoDB collection
type userRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{coll: db.Collection(database.UsersCollection)}
}

// Create inserts a new user document
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	if u.SavedBooks == nil {
		u.SavedBooks = []model.Book{}
	}

	res, err := r.coll.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrDuplicateUser
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = id
	}
	return nil
}

// GetByID retrieves a user by id, without the password hash
func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, model.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(withoutPassword))
}

// GetByUsername retrieves a user by username, without the password hash
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"username": username}, options.FindOne().SetProjection(withoutPassword))
}

// GetByUsernameOrEmail includes the password hash; it backs login and the signup existence check.
func (r *userRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	var or bson.A
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return nil, model.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"$or": or}, options.FindOne())
}

// AddBook pushes the book in a single conditional update. The filter skips
// documents that already hold the bookId, so a miss means either the user is
// gone or the book is already saved; the follow-up read tells them apart.
func (r *userRepository) AddBook(ctx context.Context, userID string, book model.Book) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, model.ErrUserNotFound
	}

	filter := bson.M{
		"_id":               oid,
		"savedBooks.bookId": bson.M{"$ne": book.BookID},
	}
	update := bson.M{"$push": bson.M{"savedBooks": book}}

	u, err := r.findOneAndUpdate(ctx, filter, update)
	if errors.Is(err, model.ErrUserNotFound) {
		return r.GetByID(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add book: %w", err)
	}
	return u, nil
}

// RemoveBook pulls all entries matching bookID
func (r *userRepository) RemoveBook(ctx context.Context, userID, bookID string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, model.ErrUserNotFound
	}

	update := bson.M{"$pull": bson.M{"savedBooks": bson.M{"bookId": bookID}}}

	u, err := r.findOneAndUpdate(ctx, bson.M{"_id": oid}, update)
	if err != nil && !errors.Is(err, model.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to remove book: %w", err)
	}
	return u, err
}

// ListWithSavedBooks returns users with a non-empty savedBooks array
func (r *userRepository) ListWithSavedBooks(ctx context.Context) ([]model.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(withoutPassword)

	cur, err := r.coll.Find(ctx, bson.M{"savedBooks.0": bson.M{"$exists": true}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with books: %w", err)
	}

	var users []model.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*model.User, error) {
	var u model.User
	err := r.coll.FindOne(ctx, filter, opts).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (r *userRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*model.User, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(withoutPassword)

	var u model.User
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

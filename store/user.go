package store

import (
	"context"
	"errors"
	"time"

	"github.com/21namanpandey/e-library/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateEmail is returned by CreateUser when the unique email index rejects the insert.
var ErrDuplicateEmail = errors.New("email already registered")

// UserByEmail returns nil, nil when no user has the given email.
func (db *DB) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	res, err := db.Users().InsertOne(ctx, user, options.InsertOne())
	if mongo.IsDuplicateKeyError(err) {
		return primitive.NilObjectID, ErrDuplicateEmail
	}
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

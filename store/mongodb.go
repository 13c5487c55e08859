package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection = "users"
	booksCollection = "books"
)

// DB wraps the elib database. Its methods return nil, nil for lookups that
// match nothing.
type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDB(ctx context.Context, uri, dbName string) (*DB, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetAppName("elib").
		SetServerSelectionTimeout(10 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping: %w", err)
	}
	slog.Info("connected to mongodb", "db", dbName)
	return &DB{
		Client:   client,
		Database: client.Database(dbName),
	}, nil
}

func (db *DB) Users() *mongo.Collection {
	return db.Database.Collection(usersCollection)
}

func (db *DB) Books() *mongo.Collection {
	return db.Database.Collection(booksCollection)
}

// EnsureIndexes creates the unique email index and the author index on books.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	if _, err := db.Users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("users email index: %w", err)
	}
	if _, err := db.Books().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "author", Value: 1}},
	}); err != nil {
		return fmt.Errorf("books author index: %w", err)
	}
	return nil
}

func (db *DB) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.Client.Disconnect(ctx)
}

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

func (db *DB) CreateBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error) {
	now := time.Now().UTC()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = now
	res, err := db.Books().InsertOne(ctx, book, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

// BookByID returns nil, nil when no book has the given id.
func (db *DB) BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// UpdateBook sets the fields present in changes and returns the stored
// document after the update, or nil, nil if the book no longer exists.
// Author and createdAt are never touched.
func (db *DB) UpdateBook(ctx context.Context, id primitive.ObjectID, changes models.BookChanges) (*models.Book, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if changes.Title != nil {
		set["title"] = *changes.Title
	}
	if changes.Genre != nil {
		set["genre"] = *changes.Genre
	}
	if changes.Description != nil {
		set["description"] = *changes.Description
	}
	if changes.Cover != nil {
		set["coverImage"] = changes.Cover.URL
		set["coverImageKey"] = changes.Cover.Key
	}
	if changes.File != nil {
		set["file"] = changes.File.URL
		set["fileKey"] = changes.File.Key
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Book
	err := db.Books().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (db *DB) DeleteBook(ctx context.Context, id primitive.ObjectID) error {
	_, err := db.Books().DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// AllBookViews returns every book, newest first, with the author's name resolved.
func (db *DB) AllBookViews(ctx context.Context) ([]models.BookView, error) {
	return db.bookViews(ctx, bson.M{})
}

// BookViewByID returns nil, nil when no book has the given id.
func (db *DB) BookViewByID(ctx context.Context, id primitive.ObjectID) (*models.BookView, error) {
	views, err := db.bookViews(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, nil
	}
	return &views[0], nil
}

func (db *DB) bookViews(ctx context.Context, match bson.M) ([]models.BookView, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "author",
			"foreignField": "_id",
			"as":           "author",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$author", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{
			"title":       1,
			"genre":       1,
			"description": 1,
			"coverImage":  1,
			"file":        1,
			"createdAt":   1,
			"updatedAt":   1,
			"author._id":  1,
			"author.name": 1,
		}}},
	}
	cur, err := db.Books().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	books := []models.BookView{}
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

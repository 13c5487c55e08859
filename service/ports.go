package service

import (
	"context"

	"github.com/21namanpandey/e-library/models"
	"github.com/21namanpandey/e-library/tempstore"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookStore persists book records. Lookups return nil, nil when nothing matches.
type BookStore interface {
	CreateBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error)
	BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
	UpdateBook(ctx context.Context, id primitive.ObjectID, changes models.BookChanges) (*models.Book, error)
	DeleteBook(ctx context.Context, id primitive.ObjectID) error
	AllBookViews(ctx context.Context) ([]models.BookView, error)
	BookViewByID(ctx context.Context, id primitive.ObjectID) (*models.BookView, error)
}

// UserStore persists users. UserByEmail returns nil, nil when nothing matches.
type UserStore interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error)
}

// StagedFileRemover removes staged upload files from local disk.
type StagedFileRemover interface {
	Remove(files ...*tempstore.StagedFile) error
}

// TokenSigner issues access tokens for a user.
type TokenSigner interface {
	Issue(userID, email string) (string, error)
}

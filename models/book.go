package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Book struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title         string             `bson:"title" json:"title"`
	Genre         string             `bson:"genre" json:"genre"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Author        primitive.ObjectID `bson:"author" json:"author"` // set once at creation
	CoverImage    string             `bson:"coverImage" json:"coverImage"`
	CoverImageKey string             `bson:"coverImageKey,omitempty" json:"-"` // remote object id of the cover
	File          string             `bson:"file" json:"file"`
	FileKey       string             `bson:"fileKey,omitempty" json:"-"` // remote object id of the document
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Asset is an uploaded remote object.
type Asset struct {
	URL string
	Key string
}

// BookChanges lists the fields an update writes. Nil fields keep their stored
// value, so an update never writes back asset references it did not upload.
type BookChanges struct {
	Title       *string
	Genre       *string
	Description *string
	Cover       *Asset
	File        *Asset
}

// AuthorRef is the author of a book as returned to clients.
type AuthorRef struct {
	ID   primitive.ObjectID `bson:"_id" json:"_id"`
	Name string             `bson:"name" json:"name"`
}

// BookView is a book with its author resolved from the users collection.
type BookView struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Genre       string             `bson:"genre" json:"genre"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Author      AuthorRef          `bson:"author" json:"author"`
	CoverImage  string             `bson:"coverImage" json:"coverImage"`
	File        string             `bson:"file" json:"file"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

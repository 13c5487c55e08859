package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/21namanpandey/e-library/models"
	"github.com/21namanpandey/e-library/store"
	"github.com/21namanpandey/e-library/tempstore"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type uploadCall struct {
	LocalPath string
	Opts      UploadOptions
}

type deleteCall struct {
	ID   string
	Opts DeleteOptions
}

// fakeStorage records calls and fails uploads for categories listed in failUploads.
type fakeStorage struct {
	mu          sync.Mutex
	uploads     []uploadCall
	deletes     []deleteCall
	failUploads map[string]error
	failDeletes error
}

func (f *fakeStorage) Upload(_ context.Context, localPath string, opts UploadOptions) (StoredObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, uploadCall{LocalPath: localPath, Opts: opts})
	if err := f.failUploads[opts.Category]; err != nil {
		return StoredObject{}, err
	}
	if _, err := os.Stat(localPath); err != nil {
		return StoredObject{}, fmt.Errorf("staged file missing: %w", err)
	}
	id := objectKey(localPath, opts)
	return StoredObject{URL: "https://cdn.test/" + id, ID: id}, nil
}

func (f *fakeStorage) Delete(_ context.Context, id string, opts DeleteOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, deleteCall{ID: id, Opts: opts})
	return f.failDeletes
}

func (f *fakeStorage) uploadFor(category string) (uploadCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.uploads {
		if u.Opts.Category == category {
			return u, true
		}
	}
	return uploadCall{}, false
}

func (f *fakeStorage) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.deletes))
	for _, d := range f.deletes {
		ids = append(ids, d.ID)
	}
	return ids
}

type fakeBookStore struct {
	mu        sync.Mutex
	books     map[primitive.ObjectID]models.Book
	createErr error
	updateErr error
	deleteErr error
	// stale, when set, is returned by BookByID instead of the current record
	stale *models.Book
}

func newFakeBookStore() *fakeBookStore {
	return &fakeBookStore{books: map[primitive.ObjectID]models.Book{}}
}

func (f *fakeBookStore) CreateBook(_ context.Context, book *models.Book) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return primitive.NilObjectID, f.createErr
	}
	book.ID = primitive.NewObjectID()
	f.books[book.ID] = *book
	return book.ID, nil
}

func (f *fakeBookStore) BookByID(_ context.Context, id primitive.ObjectID) (*models.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stale != nil && f.stale.ID == id {
		b := *f.stale
		return &b, nil
	}
	b, ok := f.books[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (f *fakeBookStore) UpdateBook(_ context.Context, id primitive.ObjectID, changes models.BookChanges) (*models.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	next, ok := f.books[id]
	if !ok {
		return nil, nil
	}
	if changes.Title != nil {
		next.Title = *changes.Title
	}
	if changes.Genre != nil {
		next.Genre = *changes.Genre
	}
	if changes.Description != nil {
		next.Description = *changes.Description
	}
	if changes.Cover != nil {
		next.CoverImage, next.CoverImageKey = changes.Cover.URL, changes.Cover.Key
	}
	if changes.File != nil {
		next.File, next.FileKey = changes.File.URL, changes.File.Key
	}
	f.books[id] = next
	return &next, nil
}

func (f *fakeBookStore) DeleteBook(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.books, id)
	return nil
}

func (f *fakeBookStore) AllBookViews(_ context.Context) ([]models.BookView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.BookView{}
	for _, b := range f.books {
		out = append(out, models.BookView{ID: b.ID, Title: b.Title, Author: models.AuthorRef{ID: b.Author}})
	}
	return out, nil
}

func (f *fakeBookStore) BookViewByID(_ context.Context, id primitive.ObjectID) (*models.BookView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[id]
	if !ok {
		return nil, nil
	}
	return &models.BookView{ID: b.ID, Title: b.Title, Author: models.AuthorRef{ID: b.Author}}, nil
}

func (f *fakeBookStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.books)
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]models.User{}}
}

func (f *fakeUserStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *models.User) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.Email]; ok {
		return primitive.NilObjectID, store.ErrDuplicateEmail
	}
	user.ID = primitive.NewObjectID()
	f.users[user.Email] = *user
	return user.ID, nil
}

type failingSigner struct{}

func (failingSigner) Issue(string, string) (string, error) { return "", errors.New("signing failed") }

// stage writes a file straight into the temp store's directory.
func stage(t *testing.T, temp *tempstore.Store, field, name, contentType string) *tempstore.StagedFile {
	t.Helper()
	path := filepath.Join(temp.Dir(), name)
	require.NoError(t, os.WriteFile(path, []byte(field+" bytes"), 0o644))
	return &tempstore.StagedFile{Field: field, Filename: name, Path: path, ContentType: contentType}
}

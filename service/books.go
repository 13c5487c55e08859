package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/21namanpandey/e-library/apperr"
	"github.com/21namanpandey/e-library/models"
	"github.com/21namanpandey/e-library/tempstore"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

type CreateBookInput struct {
	Title       string `validate:"required"`
	Genre       string `validate:"required"`
	Description string
	Cover       *tempstore.StagedFile `validate:"required"`
	Document    *tempstore.StagedFile `validate:"required"`
}

// UpdateBookInput holds the fields supplied with an update. Nil fields keep
// their stored value.
type UpdateBookInput struct {
	Title       *string
	Genre       *string
	Description *string
	Cover       *tempstore.StagedFile
	Document    *tempstore.StagedFile
}

// BookService manages books and their two remote assets: the cover image and
// the document. Staged files passed to Create and Update are always removed
// before the call returns.
type BookService struct {
	store    BookStore
	storage  ObjectStorage
	temp     StagedFileRemover
	logger   *slog.Logger
	validate *validator.Validate
}

func NewBookService(store BookStore, storage ObjectStorage, temp StagedFileRemover, logger *slog.Logger) *BookService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookService{
		store:    store,
		storage:  storage,
		temp:     temp,
		logger:   logger.With("component", "books"),
		validate: validator.New(),
	}
}

// OwnsBook reports whether principal is the author of book.
func OwnsBook(book *models.Book, principal primitive.ObjectID) bool {
	return book != nil && !principal.IsZero() && book.Author == principal
}

// Create uploads both assets and stores a new book authored by principal.
// No record is written unless both uploads succeed.
func (s *BookService) Create(ctx context.Context, principal primitive.ObjectID, in CreateBookInput) (primitive.ObjectID, error) {
	defer s.cleanup("create", in.Cover, in.Document)

	in.Title = strings.TrimSpace(in.Title)
	in.Genre = strings.TrimSpace(in.Genre)
	if err := s.validate.Struct(in); err != nil {
		return primitive.NilObjectID, apperr.Validation("All fields are required")
	}
	format, err := coverFormat(in.Cover)
	if err != nil {
		return primitive.NilObjectID, err
	}

	var cover, doc StoredObject
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		cover, err = s.uploadCover(gctx, in.Cover, format)
		return err
	})
	g.Go(func() (err error) {
		doc, err = s.uploadDocument(gctx, in.Document)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("asset upload failed", "op", "create", "err", err)
		s.discard(ctx, "create", cover, doc)
		return primitive.NilObjectID, apperr.Upstream("Error while uploading the files", err)
	}

	book := &models.Book{
		Title:         in.Title,
		Genre:         in.Genre,
		Description:   strings.TrimSpace(in.Description),
		Author:        principal,
		CoverImage:    cover.URL,
		CoverImageKey: cover.ID,
		File:          doc.URL,
		FileKey:       doc.ID,
	}
	id, err := s.store.CreateBook(ctx, book)
	if err != nil {
		s.discard(ctx, "create", cover, doc)
		return primitive.NilObjectID, apperr.Internal("Error while creating the book", err)
	}
	s.logger.Info("book created", "id", id.Hex(), "author", principal.Hex(), "cover", cover.ID, "file", doc.ID)
	return id, nil
}

// Update replaces the metadata and any asset supplied in the request. Only the
// supplied fields are written, so assets that are not supplied keep whatever
// reference is stored at write time, not the one read at the start.
func (s *BookService) Update(ctx context.Context, id, principal primitive.ObjectID, in UpdateBookInput) (*models.Book, error) {
	defer s.cleanup("update", in.Cover, in.Document)

	book, err := s.store.BookByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("Error while updating the book", err)
	}
	if book == nil {
		return nil, apperr.NotFound("Book not found")
	}
	if !OwnsBook(book, principal) {
		return nil, apperr.Forbidden("Unauthorized access, you cannot update others' book")
	}

	var format string
	if in.Cover != nil {
		if format, err = coverFormat(in.Cover); err != nil {
			return nil, err
		}
	}

	var cover, doc StoredObject
	g, gctx := errgroup.WithContext(ctx)
	if in.Cover != nil {
		g.Go(func() (err error) {
			cover, err = s.uploadCover(gctx, in.Cover, format)
			return err
		})
	}
	if in.Document != nil {
		g.Go(func() (err error) {
			doc, err = s.uploadDocument(gctx, in.Document)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("asset upload failed", "op", "update", "book", id.Hex(), "err", err)
		s.discard(ctx, "update", cover, doc)
		return nil, apperr.Upstream("Error while updating the book", err)
	}

	var changes models.BookChanges
	if in.Title != nil && strings.TrimSpace(*in.Title) != "" {
		title := strings.TrimSpace(*in.Title)
		changes.Title = &title
	}
	if in.Genre != nil && strings.TrimSpace(*in.Genre) != "" {
		genre := strings.TrimSpace(*in.Genre)
		changes.Genre = &genre
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		changes.Description = &desc
	}
	if cover.ID != "" {
		changes.Cover = &models.Asset{URL: cover.URL, Key: cover.ID}
	}
	if doc.ID != "" {
		changes.File = &models.Asset{URL: doc.URL, Key: doc.ID}
	}

	saved, err := s.store.UpdateBook(ctx, id, changes)
	if err != nil {
		s.discard(ctx, "update", cover, doc)
		return nil, apperr.Internal("Error while updating the book", err)
	}
	if saved == nil {
		s.discard(ctx, "update", cover, doc)
		return nil, apperr.NotFound("Book not found")
	}

	var superseded []remoteAsset
	if cover.ID != "" {
		superseded = append(superseded, remoteAsset{id: coverObjectID(book)})
	}
	if doc.ID != "" {
		superseded = append(superseded, remoteAsset{id: documentObjectID(book), raw: true})
	}
	s.deleteRemote(ctx, "update", superseded...)

	s.logger.Info("book updated", "id", id.Hex(), "cover", cover.ID != "", "file", doc.ID != "")
	return saved, nil
}

// Delete removes the book's remote assets and then its record. Remote deletes
// are best effort: the record is removed even when they fail.
func (s *BookService) Delete(ctx context.Context, id, principal primitive.ObjectID) error {
	book, err := s.store.BookByID(ctx, id)
	if err != nil {
		return apperr.Internal("Error while deleting the book", err)
	}
	if book == nil {
		return apperr.NotFound("Book not found")
	}
	if !OwnsBook(book, principal) {
		return apperr.Forbidden("You can not delete others book.")
	}

	s.deleteRemote(ctx, "delete",
		remoteAsset{id: coverObjectID(book)},
		remoteAsset{id: documentObjectID(book), raw: true},
	)

	if err := s.store.DeleteBook(ctx, id); err != nil {
		return apperr.Internal("Error while deleting the book", err)
	}
	s.logger.Info("book deleted", "id", id.Hex())
	return nil
}

func (s *BookService) List(ctx context.Context) ([]models.BookView, error) {
	books, err := s.store.AllBookViews(ctx)
	if err != nil {
		return nil, apperr.Internal("Error while getting books", err)
	}
	return books, nil
}

func (s *BookService) Get(ctx context.Context, id primitive.ObjectID) (*models.BookView, error) {
	book, err := s.store.BookViewByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("Error while getting a book", err)
	}
	if book == nil {
		return nil, apperr.NotFound("Book not found")
	}
	return book, nil
}

func (s *BookService) uploadCover(ctx context.Context, f *tempstore.StagedFile, format string) (StoredObject, error) {
	return s.storage.Upload(ctx, f.Path, UploadOptions{
		Category:         CategoryCovers,
		FilenameOverride: f.Name(),
		Format:           format,
	})
}

func (s *BookService) uploadDocument(ctx context.Context, f *tempstore.StagedFile) (StoredObject, error) {
	return s.storage.Upload(ctx, f.Path, UploadOptions{
		Category:         CategoryDocuments,
		FilenameOverride: f.Name(),
		Format:           DocumentFormat,
		Raw:              true,
	})
}

// coverFormat derives the remote format from the cover's MIME subtype.
func coverFormat(f *tempstore.StagedFile) (string, error) {
	sub := f.MIMESubtype()
	if !strings.HasPrefix(strings.ToLower(f.ContentType), "image/") || sub == "" {
		return "", apperr.Validation("Cover image must be an image file")
	}
	return strings.ToLower(sub), nil
}

type remoteAsset struct {
	id  string
	raw bool
}

func coverObjectID(b *models.Book) string {
	if b.CoverImageKey != "" {
		return b.CoverImageKey
	}
	return ObjectIDFromURL(b.CoverImage)
}

func documentObjectID(b *models.Book) string {
	if b.FileKey != "" {
		return b.FileKey
	}
	return ObjectIDFromURL(b.File)
}

// deleteRemote deletes the given objects concurrently. Failures are logged only.
func (s *BookService) deleteRemote(ctx context.Context, op string, assets ...remoteAsset) {
	ctx = context.WithoutCancel(ctx)
	var g errgroup.Group
	for _, a := range assets {
		if a.id == "" {
			continue
		}
		g.Go(func() error {
			if err := s.storage.Delete(ctx, a.id, DeleteOptions{Raw: a.raw}); err != nil {
				s.logger.Warn("remote delete failed", "op", op, "object", a.id, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// discard deletes objects uploaded during a request that did not persist them.
func (s *BookService) discard(ctx context.Context, op string, cover, doc StoredObject) {
	s.deleteRemote(ctx, op,
		remoteAsset{id: cover.ID},
		remoteAsset{id: doc.ID, raw: true},
	)
}

func (s *BookService) cleanup(op string, files ...*tempstore.StagedFile) {
	if err := s.temp.Remove(files...); err != nil {
		s.logger.Warn("staged file cleanup failed", "op", op, "err", err)
	}
}

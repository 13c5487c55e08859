package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/21namanpandey/e-library/apperr"
	"github.com/21namanpandey/e-library/middleware"
	"github.com/21namanpandey/e-library/models"
	"github.com/21namanpandey/e-library/service"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookService is the subset of service.BookService the handlers call.
type BookService interface {
	Create(ctx context.Context, principal primitive.ObjectID, in service.CreateBookInput) (primitive.ObjectID, error)
	Update(ctx context.Context, id, principal primitive.ObjectID, in service.UpdateBookInput) (*models.Book, error)
	Delete(ctx context.Context, id, principal primitive.ObjectID) error
	List(ctx context.Context) ([]models.BookView, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.BookView, error)
}

type BooksHandler struct {
	Books        BookService
	Stager       FileStager
	MaxFileBytes int64
	Errors       *ErrorWriter
	Logger       *slog.Logger
}

type CreateBookResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ListBooksResponse struct {
	Books []models.BookView `json:"books"`
}

func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Authorization token is required."})
		return
	}
	form, err := parseBookForm(w, r, h.Stager, h.MaxFileBytes, h.logger())
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	id, err := h.Books.Create(r.Context(), principal, service.CreateBookInput{
		Title:       form.value("title"),
		Genre:       form.value("genre"),
		Description: form.value("description"),
		Cover:       form.Cover,
		Document:    form.Document,
	})
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateBookResponse{ID: id.Hex(), Status: "created"})
}

func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Authorization token is required."})
		return
	}
	id, err := bookID(r)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	form, err := parseBookForm(w, r, h.Stager, h.MaxFileBytes, h.logger())
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	book, err := h.Books.Update(r.Context(), id, principal, service.UpdateBookInput{
		Title:       form.optional("title"),
		Genre:       form.optional("genre"),
		Description: form.optional("description"),
		Cover:       form.Cover,
		Document:    form.Document,
	})
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.Books.List(r.Context())
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	if books == nil {
		books = []models.BookView{}
	}
	writeJSON(w, http.StatusOK, ListBooksResponse{Books: books})
}

func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := bookID(r)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	book, err := h.Books.Get(r.Context(), id)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Authorization token is required."})
		return
	}
	id, err := bookID(r)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	if err := h.Books.Delete(r.Context(), id, principal); err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Book deleted"})
}

func (h *BooksHandler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// bookID parses the bookId path parameter. An id that cannot exist is
// reported the same way as a missing book.
func bookID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "bookId"))
	if err != nil {
		return primitive.NilObjectID, apperr.NotFound("Book not found")
	}
	return id, nil
}

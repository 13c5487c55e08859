package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/21namanpandey/e-library/apperr"
	"github.com/21namanpandey/e-library/tempstore"
	"github.com/dustin/go-humanize"
)

const (
	fieldCover    = "coverImage"
	fieldDocument = "file"

	// multipart parts beyond this are spilled to temporary files by net/http
	formMemory = 8 << 20
)

// FileStager writes uploaded parts to local disk and removes them again.
type FileStager interface {
	Stage(field string, header *multipart.FileHeader) (*tempstore.StagedFile, error)
	Remove(files ...*tempstore.StagedFile) error
}

// bookForm is a parsed book multipart request. Cover and Document are nil
// when the part was not sent.
type bookForm struct {
	values   map[string][]string
	Cover    *tempstore.StagedFile
	Document *tempstore.StagedFile
}

func (f *bookForm) value(key string) string {
	if v := f.values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// optional returns nil when the field was absent from the form.
func (f *bookForm) optional(key string) *string {
	v, ok := f.values[key]
	if !ok || len(v) == 0 {
		return nil
	}
	return &v[0]
}

// parseBookForm parses the request and stages the cover and document parts.
// On error nothing is left staged.
func parseBookForm(w http.ResponseWriter, r *http.Request, stager FileStager, maxFileBytes int64, logger *slog.Logger) (*bookForm, error) {
	if maxFileBytes > 0 {
		// two files plus form fields
		r.Body = http.MaxBytesReader(w, r.Body, 2*maxFileBytes+formMemory)
	}
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.Validation(fmt.Sprintf("Request body exceeds %s", humanize.Bytes(uint64(tooLarge.Limit))))
		}
		return nil, apperr.Validation("Invalid multipart form")
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.Warn("failed to remove multipart temp files", "err", err)
		}
	}()

	form := &bookForm{values: r.MultipartForm.Value}
	headers := map[string]*multipart.FileHeader{}
	for _, field := range []string{fieldCover, fieldDocument} {
		fh := r.MultipartForm.File[field]
		if len(fh) == 0 {
			continue
		}
		if maxFileBytes > 0 && fh[0].Size > maxFileBytes {
			return nil, apperr.Validation(fmt.Sprintf("%s is %s, the limit is %s",
				field, humanize.Bytes(uint64(fh[0].Size)), humanize.Bytes(uint64(maxFileBytes))))
		}
		headers[field] = fh[0]
	}

	var err error
	if h := headers[fieldCover]; h != nil {
		if form.Cover, err = stager.Stage(fieldCover, h); err != nil {
			return nil, apperr.Internal("Error while receiving the files", err)
		}
	}
	if h := headers[fieldDocument]; h != nil {
		if form.Document, err = stager.Stage(fieldDocument, h); err != nil {
			if rmErr := stager.Remove(form.Cover); rmErr != nil {
				logger.Warn("staged file cleanup failed", "err", rmErr)
			}
			return nil, apperr.Internal("Error while receiving the files", err)
		}
	}
	return form, nil
}

// Package tempstore stages uploaded multipart files on local disk for the
// duration of a single request.
//
// Every file handed out by Stage must eventually be passed to Remove; the
// book service does this on both its success and failure paths.
package tempstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// StagedFile is an uploaded file part written to the staging directory.
type StagedFile struct {
	Field       string // form field the part came from
	Filename    string // client supplied name
	Path        string
	ContentType string
	Size        int64
}

// Name is the base name of the staged file on disk.
func (f *StagedFile) Name() string { return filepath.Base(f.Path) }

// MIMESubtype returns the subtype of the declared content type, e.g. "png" for "image/png".
func (f *StagedFile) MIMESubtype() string {
	mt, _, err := mime.ParseMediaType(f.ContentType)
	if err != nil {
		mt = f.ContentType
	}
	_, sub, ok := strings.Cut(mt, "/")
	if !ok {
		return ""
	}
	return sub
}

type Store struct {
	dir    string
	logger *slog.Logger
}

// New creates the staging directory if missing.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) Dir() string { return s.dir }

// Stage copies an uploaded part into the staging directory under a random name
// that keeps the client's extension.
func (s *Store) Stage(field string, header *multipart.FileHeader) (*StagedFile, error) {
	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s part: %w", field, err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	path := filepath.Join(s.dir, uuid.NewString()+ext)
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}

	n, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.logger.Warn("failed to remove partial staged file", "path", path, "err", rmErr)
		}
		return nil, fmt.Errorf("write staged file: %w", err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
		if detected, err := mimetype.DetectFile(path); err == nil {
			contentType = detected.String()
		}
	}

	f := &StagedFile{
		Field:       field,
		Filename:    header.Filename,
		Path:        path,
		ContentType: contentType,
		Size:        n,
	}
	s.logger.Debug("staged upload", "field", field, "path", path, "type", contentType, "size", humanize.Bytes(uint64(n)))
	return f, nil
}

// Remove unlinks every given file. Removals run concurrently and each one is
// attempted regardless of the others; the failures are joined. Nil entries and
// files that are already gone are ignored.
func (s *Store) Remove(files ...*StagedFile) error {
	errs := make([]error, len(files))
	var g errgroup.Group
	for i, f := range files {
		if f == nil || f.Path == "" {
			continue
		}
		g.Go(func() error {
			if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs[i] = fmt.Errorf("remove %s: %w", f.Path, err)
				return nil
			}
			s.logger.Debug("removed staged file", "path", f.Path)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Sweep removes staged files whose modification time is older than maxAge.
// It returns the number of files removed.
func (s *Store) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read upload dir: %w", err)
	}
	cutoff := time.Now().Add(-maxAge)
	var stale []*StagedFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			stale = append(stale, &StagedFile{Path: filepath.Join(s.dir, entry.Name())})
		}
	}
	err = s.Remove(stale...)
	removed := len(stale)
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		removed -= len(joined.Unwrap())
	}
	return removed, err
}

package service

import (
	"context"
	"mime"
	"net/url"
	"path"
	"strings"
)

// Remote categories for book assets.
const (
	CategoryCovers    = "book-covers"
	CategoryDocuments = "book-pdfs"
)

// DocumentFormat is the format every book document is stored as.
const DocumentFormat = "pdf"

type UploadOptions struct {
	Category         string // folder the object is stored under
	FilenameOverride string // object name; its extension is replaced by Format
	Format           string
	Raw              bool // store bytes opaquely, no image handling
}

type DeleteOptions struct {
	Raw bool
}

// StoredObject is the result of a successful upload.
type StoredObject struct {
	URL string // remote reference handed to clients
	ID  string // stable identifier used to delete the object
}

// ObjectStorage is a remote object store for book assets.
type ObjectStorage interface {
	Upload(ctx context.Context, localPath string, opts UploadOptions) (StoredObject, error)
	Delete(ctx context.Context, id string, opts DeleteOptions) error
}

// objectKey builds "<category>/<name>.<format>" from the upload options.
func objectKey(localPath string, opts UploadOptions) string {
	name := opts.FilenameOverride
	if name == "" {
		name = path.Base(localPath)
	}
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := path.Ext(name)
	if opts.Format != "" {
		name = strings.TrimSuffix(name, ext) + "." + opts.Format
	}
	if opts.Category == "" {
		return name
	}
	return opts.Category + "/" + name
}

func objectContentType(opts UploadOptions) string {
	if opts.Format == "" {
		return "application/octet-stream"
	}
	if !opts.Raw {
		return "image/" + opts.Format
	}
	if ct := mime.TypeByExtension("." + opts.Format); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func publicObjectURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

// ObjectIDFromURL recovers the object identifier (category + filename) from a
// stored reference URL. Only used for records written without a stored key.
func ObjectIDFromURL(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.Path == "" {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 {
		return ""
	}
	id := strings.Join(segments[len(segments)-2:], "/")
	if unescaped, err := url.PathUnescape(id); err == nil {
		return unescaped
	}
	return id
}

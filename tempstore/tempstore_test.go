package tempstore

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, field, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File[field][0]
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "uploads"), nil)
	require.NoError(t, err)
	return s
}

func TestStage_WritesFileWithDeclaredType(t *testing.T) {
	s := newStore(t)
	fh := fileHeader(t, "coverImage", "Cover.PNG", "image/png", []byte("not really a png"))

	f, err := s.Stage("coverImage", fh)
	require.NoError(t, err)

	assert.Equal(t, "coverImage", f.Field)
	assert.Equal(t, "Cover.PNG", f.Filename)
	assert.Equal(t, "image/png", f.ContentType)
	assert.Equal(t, "png", f.MIMESubtype())
	assert.Equal(t, ".png", filepath.Ext(f.Path))
	assert.Equal(t, s.Dir(), filepath.Dir(f.Path))
	assert.Equal(t, int64(16), f.Size)

	got, err := os.ReadFile(f.Path)
	require.NoError(t, err)
	assert.Equal(t, "not really a png", string(got))
}

func TestStage_SniffsMissingContentType(t *testing.T) {
	s := newStore(t)
	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")
	fh := fileHeader(t, "file", "book.pdf", "application/octet-stream", pdf)

	f, err := s.Stage("file", fh)
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", f.ContentType)
}

func TestMIMESubtype(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"image/jpeg", "jpeg"},
		{"image/svg+xml", "svg+xml"},
		{"image/png; charset=binary", "png"},
		{"garbage", ""},
		{"", ""},
	}
	for _, tt := range tests {
		f := &StagedFile{ContentType: tt.contentType}
		assert.Equal(t, tt.want, f.MIMESubtype(), tt.contentType)
	}
}

func TestRemove_AllFiles(t *testing.T) {
	s := newStore(t)
	a, err := s.Stage("coverImage", fileHeader(t, "coverImage", "a.png", "image/png", []byte("a")))
	require.NoError(t, err)
	b, err := s.Stage("file", fileHeader(t, "file", "b.pdf", "application/pdf", []byte("b")))
	require.NoError(t, err)

	require.NoError(t, s.Remove(a, nil, b))

	assert.NoFileExists(t, a.Path)
	assert.NoFileExists(t, b.Path)
}

func TestRemove_FailureDoesNotStopOthers(t *testing.T) {
	s := newStore(t)
	ok, err := s.Stage("file", fileHeader(t, "file", "b.pdf", "application/pdf", []byte("b")))
	require.NoError(t, err)

	// A non-empty directory cannot be removed with os.Remove.
	stuckDir := filepath.Join(s.Dir(), "stuck")
	require.NoError(t, os.MkdirAll(filepath.Join(stuckDir, "child"), 0o755))
	stuck := &StagedFile{Path: stuckDir}

	err = s.Remove(stuck, ok)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "stuck")
	assert.NoFileExists(t, ok.Path)
	assert.DirExists(t, stuckDir)
}

func TestRemove_MissingFileIgnored(t *testing.T) {
	s := newStore(t)
	assert.NoError(t, s.Remove(&StagedFile{Path: filepath.Join(s.Dir(), "gone.png")}))
}

func TestSweep_RemovesOnlyStaleFiles(t *testing.T) {
	s := newStore(t)
	fresh := filepath.Join(s.Dir(), "fresh.png")
	stale := filepath.Join(s.Dir(), "stale.pdf")
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(stale, []byte("y"), 0o644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	n, err := s.Sweep(time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.FileExists(t, fresh)
	assert.NoFileExists(t, stale)
}

func TestNew_RequiresDir(t *testing.T) {
	_, err := New("  ", nil)
	assert.Error(t, err)
}

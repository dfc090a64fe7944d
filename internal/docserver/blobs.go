package docserver

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/doree-nobuu/adventures/internal/remote"
)

// blobStore keeps uploads as files in a directory.
type blobStore struct {
	dir     string
	maxSize int64
}

func newBlobStore(dir string, maxSize int64) (*blobStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &blobStore{dir: dir, maxSize: maxSize}, nil
}

// cleanName reduces a client-supplied name to a safe file name, or
// generates one from the content type.
func cleanName(name, contentType string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name != "" && name != "." && name != string(filepath.Separator) && !strings.HasPrefix(name, ".") {
		return name
	}
	ext := ""
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		ext = exts[0]
	}
	return uuid.NewString() + ext
}

func (b *blobStore) write(name string, r io.Reader) error {
	path := filepath.Join(b.dir, name)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create blob: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to close blob: %w", err)
	}
	return os.Rename(tmp, path)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.blobs == nil {
		s.writeError(w, remote.CodeFailedPrecondition, fmt.Errorf("blob storage is disabled"))
		return
	}
	name := cleanName(r.URL.Query().Get("name"), r.Header.Get("Content-Type"))
	if err := s.blobs.write(name, http.MaxBytesReader(w, r.Body, s.blobs.maxSize)); err != nil {
		s.writeError(w, remote.CodeUnavailable, err)
		return
	}
	writeJSON(w, http.StatusCreated, remote.UploadResponse{Name: name, URL: "/v1/blobs/" + name})
}

func (s *Server) handleBlob(w http.ResponseWriter, r *http.Request) {
	if s.blobs == nil {
		http.NotFound(w, r)
		return
	}
	name := filepath.Base(r.PathValue("name"))
	if strings.HasPrefix(name, ".") {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.blobs.dir, name))
}

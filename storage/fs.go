package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// fsStore writes uploads to a local content directory and serves them with
// a plain file server.
type fsStore struct {
	dir string
}

// NewFSStore creates a filesystem-backed store rooted at dir, creating the
// directory if needed.
func NewFSStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &fsStore{dir: dir}, nil
}

func (s *fsStore) Save(_ context.Context, src io.Reader, originalName string) (string, error) {
	name := GenerateFilename(originalName)
	destPath := filepath.Join(s.dir, name)

	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}

	return name, nil
}

func (s *fsStore) Remove(_ context.Context, name string) error {
	// filepath.Base keeps generated references from escaping the directory.
	return os.Remove(filepath.Join(s.dir, filepath.Base(name)))
}

func (s *fsStore) Handler() http.Handler {
	return http.FileServer(http.Dir(s.dir))
}

package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Store persists uploaded binaries and serves them back by reference.
//
// Save returns the generated filename as an opaque reference; callers
// persist that reference, never the original name. Remove is best-effort
// cleanup for the orphaned-file window between a file write and the row
// insert that should follow it.
type Store interface {
	Save(ctx context.Context, src io.Reader, originalName string) (string, error)
	Remove(ctx context.Context, name string) error
	Handler() http.Handler
}

// GenerateFilename builds a collision-resistant filename from a millisecond
// timestamp and a random fragment, preserving the original extension.
func GenerateFilename(originalName string) string {
	ext := filepath.Ext(filepath.Base(originalName))
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], ext)
}

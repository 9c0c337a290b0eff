// Package specdoc renders a gathered session into a markdown
// specification document and persists it, keyed by the session slug.
// Storage backends: local disk and S3-compatible object stores.
package specdoc

import (
	"context"
	"io"
)

// FileStore is the minimal storage surface the writer needs.
// Paths are forward-slash separated, relative to the store root.
// Implementations must be safe for concurrent use.
type FileStore interface {
	// Read opens the named file. The caller closes the reader.
	// Absent files return an error wrapping os.ErrNotExist.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write opens the named file for writing, truncating any existing
	// content. The caller must close the writer to flush.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Exists reports whether the named file exists.
	Exists(ctx context.Context, path string) (bool, error)
}

// Package storage defines the Storage interface and common types for storing
// and serving built documentation files. Built docs are flat trees of HTML,
// CSS, and asset files keyed by "<project>/<version>/<relative path>"; the
// docs serving endpoint streams them straight from the backend.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrInvalidPath reports a storage path that would escape the backend's root,
// such as one containing traversal sequences. Callers serving user-supplied
// paths should treat it as not-found rather than a backend failure.
var ErrInvalidPath = errors.New("invalid storage path")

// Storage defines the interface for documentation file backends
type Storage interface {
	// Upload stores a file and returns the storage result with path and checksum
	Upload(ctx context.Context, path string, reader io.Reader, size int64) (*UploadResult, error)

	// Download retrieves a file and returns a reader
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a file from storage
	Delete(ctx context.Context, path string) error

	// GetURL returns a direct download URL for the file
	GetURL(ctx context.Context, path string, ttl time.Duration) (string, error)

	// Exists checks if a file exists at the specified path
	Exists(ctx context.Context, path string) (bool, error)

	// GetMetadata retrieves file metadata without downloading the entire file
	GetMetadata(ctx context.Context, path string) (*FileMetadata, error)
}

// DocsPath builds the canonical storage path for one file of a built
// documentation version.
func DocsPath(projectSlug, versionSlug, file string) string {
	return fmt.Sprintf("%s/%s/%s", projectSlug, versionSlug, file)
}

// UploadResult contains information about an uploaded file
type UploadResult struct {
	// Path is the storage path where the file was stored
	Path string

	// Size is the file size in bytes
	Size int64

	// Checksum is the SHA256 hash of the file contents
	Checksum string
}

// FileMetadata contains metadata about a stored file
type FileMetadata struct {
	// Path is the storage path of the file
	Path string

	// Size is the file size in bytes
	Size int64

	// Checksum is the SHA256 hash of the file contents
	Checksum string

	// LastModified is the timestamp when the file was last modified
	LastModified time.Time
}

// Package storage defines the media store abstraction for uploaded
// catalog assets (thumbnails and video files). Implementations persist
// raw bytes and hand back a URL the catalog records verbatim.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrMediaNotFound is returned when the requested media object does not exist.
var ErrMediaNotFound = errors.New("media not found")

// MediaStore is the interface for media storage backends.
// Implementations include the local filesystem and S3-compatible object
// storage. Stored names are generated server-side; client filenames only
// contribute their extension.
type MediaStore interface {
	// Save stores the content under a freshly generated name and returns
	// the public URL for it. The original filename supplies the extension.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - filename: Client-supplied filename (extension source only)
	//   - contentType: MIME type reported by the client
	//   - reader: Source of the content to store
	//   - size: Expected size in bytes
	//
	// Returns:
	//   - url: Public URL under which the content is served
	//   - err: Error if storage fails
	Save(ctx context.Context, filename, contentType string, reader io.Reader, size int64) (url string, err error)

	// Open retrieves stored content by its stored name.
	// Returns ErrMediaNotFound if the object does not exist.
	// The caller must close the returned reader.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Delete removes stored content by its stored name.
	// Deleting a missing object is not an error.
	Delete(ctx context.Context, name string) error
}

// NameFromURL recovers the stored name from a URL produced by Save:
// the final path segment. Returns "" for URLs without one.
func NameFromURL(url string) string {
	if i := strings.LastIndexByte(url, '/'); i >= 0 {
		return url[i+1:]
	}
	return ""
}

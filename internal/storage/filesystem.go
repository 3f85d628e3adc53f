package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// FilesystemStore stores media on the local filesystem under a single
// directory. Stored names are UUIDs plus the original extension, so
// client filenames never touch the disk layout.
type FilesystemStore struct {
	dir       string
	publicDir string
	logger    zerolog.Logger
}

var _ MediaStore = (*FilesystemStore)(nil)

// NewFilesystemStore creates a filesystem media store rooted at dir.
// Files are served under publicDir (e.g. "/uploads").
func NewFilesystemStore(dir, publicDir string, logger zerolog.Logger) (*FilesystemStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &FilesystemStore{
		dir:       dir,
		publicDir: strings.TrimSuffix(publicDir, "/"),
		logger:    logger.With().Str("component", "media-fs").Logger(),
	}, nil
}

// Save writes the content to a uniquely named file and returns its
// public URL path.
func (s *FilesystemStore) Save(ctx context.Context, filename, contentType string, reader io.Reader, size int64) (string, error) {
	name := generateName(filename)
	path := filepath.Join(s.dir, name)

	// Write to a temp file first so a failed upload never leaves a
	// partial object under its final name.
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	written, err := io.Copy(tmp, reader)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write media: %w", err)
	}
	if size > 0 && written != size {
		return "", fmt.Errorf("size mismatch: expected %d bytes, wrote %d", size, written)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("failed to finalize media: %w", err)
	}

	s.logger.Debug().
		Str("name", name).
		Str("content_type", contentType).
		Int64("size", written).
		Msg("media stored")

	return s.publicDir + "/" + name, nil
}

// Open opens a stored file by name. Path traversal in the name is
// rejected as not found.
func (s *FilesystemStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if !validName(name) {
		return nil, ErrMediaNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMediaNotFound
		}
		return nil, fmt.Errorf("failed to open media: %w", err)
	}
	return f, nil
}

// Delete removes a stored file by name. Missing files are ignored.
func (s *FilesystemStore) Delete(ctx context.Context, name string) error {
	if !validName(name) {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	return nil
}

// Dir returns the root directory the store writes under.
func (s *FilesystemStore) Dir() string {
	return s.dir
}

// generateName produces a unique stored name preserving the original
// extension, lowered for consistency.
func generateName(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return uuid.NewString() + ext
}

// validName accepts only bare filenames: no separators, no dot-dot.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// internal/pkg/storage/storage.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrUnsupportedType is returned for content types other than jpeg, png and webp
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrTooLarge is returned when the payload exceeds the configured limit
	ErrTooLarge = errors.New("image exceeds size limit")
	// ErrEmpty is returned for zero-length payloads
	ErrEmpty = errors.New("image is empty")
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Object is a stored image
type Object struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ImageStore persists product images and returns where they can be fetched
type ImageStore interface {
	Save(ctx context.Context, name, contentType string, data []byte) (*Object, error)
}

// LocalStore writes images to a directory served under baseURL
type LocalStore struct {
	root    string
	baseURL string
	maxSize int64
}

// NewLocalStore creates the root directory if needed
func NewLocalStore(root, baseURL string, maxSize int64) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSize: maxSize,
	}, nil
}

// Save stores data under a fresh object id. The extension follows contentType, not name.
func (s *LocalStore) Save(ctx context.Context, name, contentType string, data []byte) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return nil, ErrTooLarge
	}

	ext, ok := extensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return nil, ErrUnsupportedType
	}

	id := uuid.NewString()
	filename := id + ext
	if err := os.WriteFile(filepath.Join(s.root, filename), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}

	return &Object{ID: id, URL: s.baseURL + "/" + filename}, nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"talkio_backend/internal/config"
)

var ErrNotFound = errors.New("object not found")

// Storage keeps uploaded media (voice clips) addressed by a relative key.
type Storage interface {
	// Save stores the object under key.
	Save(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Open returns a reader for the object, ErrNotFound if it does not exist.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)

	// URL is where clients fetch the object from.
	URL(key string) string
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg)
	case "s3", "cloudflare_r2":
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

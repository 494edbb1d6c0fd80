// Package storage keeps uploaded profile pictures either on local disk or in
// an S3 compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"sukesh_education/internal/config"
)

var ErrInvalidName = errors.New("invalid object name")

// Storage saves objects under a flat name and returns the URL they are served from.
type Storage interface {
	Save(ctx context.Context, name string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, name string) error
}

// NewFromConfig picks the backend named by cfg.Backend.
func NewFromConfig(ctx context.Context, cfg *config.UploadConfig) (Storage, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStorage(cfg.Dir, cfg.URLPrefix)
	case "s3":
		return NewS3Storage(ctx, &cfg.S3)
	default:
		return nil, fmt.Errorf("unknown upload backend %q", cfg.Backend)
	}
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	return nil
}

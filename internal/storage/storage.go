// Package storage keeps uploaded POD images, on local disk or in an
// S3-compatible bucket (Cloudflare R2).
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"logistics-backend/internal/config"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("object not found")

// Store puts objects and reads them back by the reference Put returned.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (ref string, err error)
	Get(ctx context.Context, ref string) (data []byte, contentType string, err error)
}

// New builds the store selected by STORAGE_DRIVER.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case "local", "":
		return NewLocal(cfg.UploadDir, "/uploads"), nil
	case "r2":
		return NewR2(ctx, R2Config{
			AccountID: cfg.R2AccountID,
			Bucket:    cfg.R2Bucket,
			AccessKey: cfg.R2AccessKey,
			SecretKey: cfg.R2SecretKey,
			PublicURL: cfg.R2PublicURL,
		})
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// ImageExt returns the file extension for an accepted image content type.
func ImageExt(contentType string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := allowedImageTypes[ct]
	return ext, ok
}

// NewKey returns a collision-free object key under prefix, e.g. pods/2f1c...e0.jpg
func NewKey(prefix, ext string) string {
	return path.Join(prefix, uuid.NewString()+ext)
}

func contentTypeFor(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	}
	return "application/octet-stream"
}

package storage

import (
	"context"
	"fmt"
	"path"

	"github.com/nuworks/agentia/internal/config"
)

// Storage receives finished order archives.
type Storage interface {
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error
	ObjectURL(bucket, key string) string
}

// BucketEnsurer is implemented by backends that can create their bucket
// on startup.
type BucketEnsurer interface {
	EnsureBucket(ctx context.Context, bucket string) error
}

const orderPrefix = "orders"

// ObjectKey is where an archive for the given order date is stored.
func ObjectKey(date, filename string) string {
	return path.Join(orderPrefix, date, path.Base(filename))
}

// New returns the configured backend, or nil when delivery is disabled.
func New(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "s3":
		return NewS3Storage(cfg)
	case "supabase":
		return NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseKey), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

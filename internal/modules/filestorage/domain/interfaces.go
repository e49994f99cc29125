package domain

import (
	"context"
	"io"
	"time"
)

// ObjectStorage stores snapshot objects by key.
// This can be implemented by S3, MinIO, local filesystem, etc.
type ObjectStorage interface {
	// Put stores body under key and returns where it can be reached.
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)

	// Get opens the object. Missing keys return ErrSnapshotNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	Delete(ctx context.Context, key string) error

	// PresignDownload returns a temporary link that downloads key as filename.
	PresignDownload(ctx context.Context, key string, filename string, expiration time.Duration) (string, error)
}

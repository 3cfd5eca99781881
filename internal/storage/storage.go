// Package storage provides temporary file handling and object storage access.
// It defines the ObjectStore interface (port) consumed by the gallery publisher
// and implementations for local temp files and S3.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrCredentialsMissing is returned when an S3 client is requested without
// an access key and secret key.
var ErrCredentialsMissing = errors.New("storage: S3 credentials are not configured")

// Object describes a stored object as returned by a bucket listing.
type Object struct {
	Key          string
	LastModified time.Time
	Size         int64
}

// ObjectStore defines the bucket operations the publisher relies on.
type ObjectStore interface {
	// UploadFile uploads the local file at path to bucket/key.
	UploadFile(ctx context.Context, bucket, key, path string) error

	// ListObjects returns every object in the bucket, following pagination.
	ListObjects(ctx context.Context, bucket string) ([]Object, error)

	// GetObject returns the object's body. The caller must close it.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// PresignGet returns a time-limited URL granting read access to bucket/key.
	PresignGet(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}

package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound indicates the requested object does not exist in the
// backend. Callers deleting an object may treat it as a no-op.
var ErrObjectNotFound = errors.New("object not found")

// Backend defines the interface for blob storage backends
type Backend interface {
	// Upload stores the content under the given object key
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// Download retrieves the content stored under the given object key
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete removes the content stored under the given object key
	Delete(ctx context.Context, objectKey string) error
}

// Package storage is the object store adapter: it holds image bytes in one
// bucket of an S3-compatible backend, keyed by storage path.
package storage

import (
	"context"
	"io"
	"time"
)

// Object is a stored blob opened for reading. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Get returns common.ErrorNotFound when the key does not exist.
	Get(ctx context.Context, key string) (*Object, error)
	Remove(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	PublicURL(key string) string
}

// Package blob defines the object store holding uploaded image bytes.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrNotFound is returned when an object does not exist.
	ErrNotFound = errors.New("blob: object not found")
	// ErrInvalidKey is returned for keys that could escape the store's namespace.
	ErrInvalidKey = errors.New("blob: invalid key")
)

// Meta describes how an object is served.
type Meta struct {
	ContentType  string
	CacheControl string
	// Custom holds free-form metadata such as the original upload name.
	Custom map[string]string
}

// Object is a stored blob opened for reading. Callers must close Body.
type Object struct {
	Body         io.ReadCloser
	Meta         Meta
	Size         int64
	ETag         string
	LastModified time.Time
}

// Store is implemented by the s3 and local backends.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, meta Meta) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

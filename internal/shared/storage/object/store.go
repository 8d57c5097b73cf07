package object

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("object not found")

// Store is a read-only view of the CV library.
type Store interface {
	// Open returns the object stored under key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// List returns every key in the store, sorted, relative to the store root.
	List(ctx context.Context) ([]string, error)
}

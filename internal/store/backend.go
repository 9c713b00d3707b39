package store

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Backend.Read for a key that was never written
// or has been deleted.
var ErrNotExist = errors.New("key does not exist")

// Backend is a flat key/value blob store.
type Backend interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns all keys in lexical order.
	List(ctx context.Context) ([]string, error)
}

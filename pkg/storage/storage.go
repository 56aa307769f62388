// Package storage persists uploaded media on an object store.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrInvalidKey is returned for object keys that escape the store root.
var ErrInvalidKey = errors.New("storage: invalid object key")

// Object describes a file handed to a provider.
type Object struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
}

// Provider stores and removes media objects.
type Provider interface {
	// Put stores obj and returns its public URL.
	Put(ctx context.Context, obj Object) (string, error)
	Delete(ctx context.Context, key string) error
	Name() string
}

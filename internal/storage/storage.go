// Package storage persists page artifacts to a durable blob backend and
// implements the site/pages addressing scheme with metadata sidecars.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a blob does not exist at the requested path.
var ErrNotFound = errors.New("object not found")

// ObjectStore is the durable blob backend contract. Paths are forward-slash
// separated keys; writes overwrite by default and two concurrent writes to
// the same path race at backend granularity (last writer wins).
type ObjectStore interface {
	Put(ctx context.Context, path string, data []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) (bool, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, path string) error
	LastModified(ctx context.Context, path string) (time.Time, error)
}

// StorageError wraps a backend failure with the operation and path that
// produced it, giving callers a stable surface to report.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op, path string, err error) error {
	return &StorageError{Op: op, Path: path, Err: err}
}

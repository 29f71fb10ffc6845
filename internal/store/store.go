// Package store defines the persistence substrate behind the record store:
// one opaque blob per collection, replaced wholesale on every write.
// Backends live in subpackages; the interface allows swapping the default
// JSON files for bbolt, SQLite, Postgres or S3 without touching callers.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a collection has never been written.
var ErrNotFound = errors.New("collection blob not found")

// Store holds one serialized collection per name.
type Store interface {
	// Get returns the stored blob for name, or ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)
	// Put replaces the blob for name.
	Put(ctx context.Context, name string, data []byte) error
	// List returns the names of every stored collection, sorted.
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Preparer is implemented by backends that need setup (directories, tables,
// buckets) before first use.
type Preparer interface {
	Prepare(ctx context.Context) error
}

// Prepare runs s.Prepare if s implements Preparer.
func Prepare(ctx context.Context, s Store) error {
	if p, ok := s.(Preparer); ok {
		return p.Prepare(ctx)
	}
	return nil
}

package recordstore

import (
	"context"
	"encoding/json"
	"fmt"

	"artisanverse/internal/query"
	"artisanverse/internal/record"
)

// Collection is a typed view over one collection. T is converted to and from
// records through its JSON encoding, so unknown fields in stored records are
// dropped on decode but never removed from the store.
type Collection[T any] struct {
	store *Store
	name  string
}

// Bind returns a typed view of the named collection.
func Bind[T any](s *Store, name string) *Collection[T] {
	return &Collection[T]{store: s, name: name}
}

func (c *Collection[T]) Name() string { return c.name }

// Create stores v and returns it as persisted, with id and timestamps set.
func (c *Collection[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	rec, err := record.Normalize(v)
	if err != nil {
		return zero, err
	}
	out, err := c.store.Create(ctx, c.name, rec)
	if err != nil {
		return zero, err
	}
	return Decode[T](out)
}

// Get returns the record with the given id. ok is false when it does not exist.
func (c *Collection[T]) Get(id string) (v T, ok bool, err error) {
	rec, found := c.store.FindByID(c.name, id)
	if !found {
		return v, false, nil
	}
	v, err = Decode[T](rec)
	return v, err == nil, err
}

// Find returns every record matching filter, decoded.
func (c *Collection[T]) Find(filter query.Filter) ([]T, error) {
	out := []T{}
	for rec := range c.store.Scan(c.name, filter) {
		v, err := Decode[T](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Update applies patch (a map or a struct whose zero fields are omitted by its
// JSON tags) to the record with the given id.
func (c *Collection[T]) Update(ctx context.Context, id string, patch any) (T, error) {
	var zero T
	rec, err := record.Normalize(patch)
	if err != nil {
		return zero, err
	}
	out, err := c.store.Update(ctx, c.name, id, rec)
	if err != nil {
		return zero, err
	}
	return Decode[T](out)
}

func (c *Collection[T]) Delete(ctx context.Context, id string) (T, error) {
	var zero T
	out, err := c.store.Delete(ctx, c.name, id)
	if err != nil {
		return zero, err
	}
	return Decode[T](out)
}

// Decode converts a record into T via JSON.
func Decode[T any](rec record.Record) (T, error) {
	var v T
	b, err := json.Marshal(rec)
	if err != nil {
		return v, fmt.Errorf("encoding record: %w", err)
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("decoding record %s: %w", rec.ID(), err)
	}
	return v, nil
}

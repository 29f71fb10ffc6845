// Package storetest is the behavioural contract every store.Store backend
// must satisfy. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"artisanverse/internal/store"
)

// Run exercises s against the store.Store contract. s must start empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	if err := store.Prepare(ctx, s); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	t.Run("Get missing", func(t *testing.T) {
		_, err := s.Get(ctx, "users")
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("List empty", func(t *testing.T) {
		names, err := s.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(names) != 0 {
			t.Fatalf("expected no collections, got %v", names)
		}
	})

	t.Run("Put and Get", func(t *testing.T) {
		blob := []byte("[\n  {\n    \"id\": \"u1\"\n  }\n]")
		if err := s.Put(ctx, "users", blob); err != nil {
			t.Fatal(err)
		}
		got, err := s.Get(ctx, "users")
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(string(blob), string(got)); diff != "" {
			t.Fatalf("blob mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Put replaces", func(t *testing.T) {
		if err := s.Put(ctx, "users", []byte("[]")); err != nil {
			t.Fatal(err)
		}
		got, err := s.Get(ctx, "users")
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "[]" {
			t.Fatalf("expected replaced blob, got %q", got)
		}
	})

	t.Run("Get returns copy", func(t *testing.T) {
		if err := s.Put(ctx, "orders", []byte(`[{"id":"o1"}]`)); err != nil {
			t.Fatal(err)
		}
		got, err := s.Get(ctx, "orders")
		if err != nil {
			t.Fatal(err)
		}
		got[0] = 'X'
		again, err := s.Get(ctx, "orders")
		if err != nil {
			t.Fatal(err)
		}
		if again[0] != '[' {
			t.Fatal("mutating a returned blob changed the store")
		}
	})

	t.Run("Collections isolated", func(t *testing.T) {
		if err := s.Put(ctx, "reviews", []byte(`[{"id":"r1"}]`)); err != nil {
			t.Fatal(err)
		}
		users, _ := s.Get(ctx, "users")
		reviews, _ := s.Get(ctx, "reviews")
		if string(users) == string(reviews) {
			t.Fatal("collections should not share blobs")
		}
	})

	t.Run("List sorted", func(t *testing.T) {
		names, err := s.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"orders", "reviews", "users"}
		if diff := cmp.Diff(want, names); diff != "" {
			t.Fatalf("List mismatch (-want +got):\n%s", diff)
		}
	})
}

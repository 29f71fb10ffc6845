// Package bolt implements store.Store on bbolt (embedded B+ tree).
// All collections share one bucket; the key is the collection name.
package bolt

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"artisanverse/internal/store"
)

var collectionsBucket = []byte("collections")

// Store implements store.Store using bbolt.
type Store struct {
	db *bolt.DB
}

// Open creates or opens a bbolt database at the given path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Prepare(_ context.Context) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(collectionsBucket); err != nil {
			return fmt.Errorf("creating bucket: %w", err)
		}
		return nil
	})
}

func (s *Store) Get(_ context.Context, name string) ([]byte, error) {
	var val []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(collectionsBucket)
		if b == nil {
			return nil
		}
		v := b.Get([]byte(name))
		if v != nil {
			val = make([]byte, len(v))
			copy(val, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, store.ErrNotFound
	}
	return val, nil
}

func (s *Store) Put(_ context.Context, name string, data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(collectionsBucket)
		if err != nil {
			return fmt.Errorf("creating bucket: %w", err)
		}
		return b.Put([]byte(name), data)
	})
}

func (s *Store) List(_ context.Context) ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(collectionsBucket)
		if b == nil {
			return nil
		}
		// bbolt iterates keys in byte order, so the result is already sorted.
		return b.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

func (s *Store) Close() error {
	return s.db.Close()
}

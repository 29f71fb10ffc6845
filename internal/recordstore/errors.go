package recordstore

import (
	"errors"
	"fmt"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrRecordNotFound     = errors.New("record not found")
	ErrPersistence        = errors.New("persistence failed")
	ErrDuplicateID        = errors.New("duplicate record id")
)

// CollectionNotFoundError reports an operation on an unregistered collection.
type CollectionNotFoundError struct {
	Collection string
}

func (e *CollectionNotFoundError) Error() string {
	return fmt.Sprintf("collection %s not found", e.Collection)
}

func (e *CollectionNotFoundError) Is(target error) bool { return target == ErrCollectionNotFound }

// RecordNotFoundError reports an update or delete of an id that is not in
// the collection.
type RecordNotFoundError struct {
	Collection string
	ID         string
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("record %s not found in %s", e.ID, e.Collection)
}

func (e *RecordNotFoundError) Is(target error) bool { return target == ErrRecordNotFound }

// DuplicateIDError reports a create whose explicit id is already taken.
type DuplicateIDError struct {
	Collection string
	ID         string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("record %s already exists in %s", e.ID, e.Collection)
}

func (e *DuplicateIDError) Is(target error) bool { return target == ErrDuplicateID }

// PersistenceError wraps a failed write of a collection to the backend.
// The in-memory mutation that triggered the write has already been applied.
type PersistenceError struct {
	Collection string
	Op         string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: persisting collection: %v", e.Op, e.Collection, e.Err)
}

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func (e *PersistenceError) Unwrap() error { return e.Err }

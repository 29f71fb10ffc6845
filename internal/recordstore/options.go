package recordstore

import (
	"time"

	"artisanverse/internal/clock"
	"artisanverse/internal/record"
)

// DefaultCollections are registered when WithCollections is not given.
var DefaultCollections = []string{
	"users", "products", "orders", "conversations", "artisans", "reviews", "workshops",
}

// PatchMode selects how Update treats dotted patch keys such as
// "payment.status".
type PatchMode string

const (
	// PatchNested expands dotted keys into nested objects.
	PatchNested PatchMode = "nested"
	// PatchLiteral stores dotted keys as literal top-level field names.
	PatchLiteral PatchMode = "literal"
)

// SeedProvider supplies the initial contents of a collection that has never
// been persisted.
type SeedProvider interface {
	Seed(collection string) []record.Record
}

// Observer receives per-operation timings and collection sizes.
type Observer interface {
	ObserveOperation(collection, op string, d time.Duration, err error)
	ObserveSize(collection string, n int)
}

type Option func(*Store)

func WithCollections(names ...string) Option {
	return func(s *Store) {
		s.names = append([]string(nil), names...)
	}
}

func WithSeeds(p SeedProvider) Option {
	return func(s *Store) { s.seeds = p }
}

func WithClock(c *clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithPatchMode sets the dotted-key policy. Unknown modes fall back to
// PatchNested.
func WithPatchMode(m PatchMode) Option {
	return func(s *Store) {
		if m != PatchLiteral {
			m = PatchNested
		}
		s.patchMode = m
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

type noopObserver struct{}

func (noopObserver) ObserveOperation(string, string, time.Duration, error) {}
func (noopObserver) ObserveSize(string, int)                              {}

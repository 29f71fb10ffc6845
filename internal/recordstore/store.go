// Package recordstore keeps every collection in memory and writes the whole
// collection back to the persistence substrate after each mutation.
package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"artisanverse/internal/clock"
	"artisanverse/internal/logging"
	"artisanverse/internal/query"
	"artisanverse/internal/record"
	"artisanverse/internal/store"
)

var logger = logging.For("recordstore")

// collection is one named list of records. records is replaced, never
// modified in place, so a slice read under RLock stays valid after unlock.
type collection struct {
	name    string
	mu      sync.RWMutex
	records []record.Record
}

// Store is the authoritative in-memory state of every registered collection.
// Mutations of one collection are serialized together with their persist;
// different collections proceed independently.
type Store struct {
	backend   store.Store
	names     []string
	colls     map[string]*collection
	seeds     SeedProvider
	clock     *clock.Clock
	patchMode PatchMode
	newID     func() string
	observer  Observer
}

// New registers the configured collections (empty until Initialize).
func New(backend store.Store, opts ...Option) *Store {
	s := &Store{
		backend:   backend,
		names:     slices.Clone(DefaultCollections),
		clock:     clock.New(),
		patchMode: PatchNested,
		newID:     uuid.NewString,
		observer:  noopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.patchMode != PatchLiteral {
		s.patchMode = PatchNested
	}
	s.colls = make(map[string]*collection, len(s.names))
	names := s.names[:0]
	for _, name := range s.names {
		if _, dup := s.colls[name]; dup || name == "" {
			continue
		}
		s.colls[name] = &collection{name: name, records: []record.Record{}}
		names = append(names, name)
	}
	s.names = names
	return s
}

// Initialize loads every registered collection from the backend. A collection
// whose blob is absent, unreadable or corrupt is replaced by its seed list and
// written back. Failures are logged; the store is always usable afterwards.
func (s *Store) Initialize(ctx context.Context) {
	if err := store.Prepare(ctx, s.backend); err != nil {
		logger.Error("preparing backend failed, starting with empty collections", "err", err)
		return
	}
	for _, name := range s.names {
		s.load(ctx, s.colls[name])
	}
	logger.Info("record store initialized", "collections", len(s.names))
}

func (s *Store) load(ctx context.Context, c *collection) {
	data, err := s.backend.Get(ctx, c.name)
	switch {
	case err == nil:
		recs, derr := decode(data)
		if derr == nil {
			s.witness(recs)
			c.mu.Lock()
			c.records = recs
			c.mu.Unlock()
			s.observer.ObserveSize(c.name, len(recs))
			logger.Debug("loaded collection", "collection", c.name, "records", len(recs))
			return
		}
		logger.Warn("corrupt collection, reseeding", "collection", c.name, "err", derr)
	case errors.Is(err, store.ErrNotFound):
		logger.Info("collection absent, seeding", "collection", c.name)
	default:
		logger.Warn("reading collection failed, reseeding", "collection", c.name, "err", err)
	}

	recs := s.seedFor(c.name)
	s.witness(recs)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = recs
	s.observer.ObserveSize(c.name, len(recs))
	if err := s.persist(ctx, c.name, recs); err != nil {
		logger.Error("persisting seed data", "collection", c.name, "err", err)
	}
}

func (s *Store) seedFor(name string) []record.Record {
	out := []record.Record{}
	if s.seeds == nil {
		return out
	}
	for _, r := range s.seeds.Seed(name) {
		if r != nil {
			out = append(out, r.Clone())
		}
	}
	return out
}

// witness raises the clock past every persisted stamp so new updatedAt
// values sort after loaded ones.
func (s *Store) witness(recs []record.Record) {
	for _, r := range recs {
		if t, ok := r.CreatedAt(); ok {
			s.clock.Witness(t)
		}
		if t, ok := r.UpdatedAt(); ok {
			s.clock.Witness(t)
		}
	}
}

// Collections returns the registered collection names in registration order.
func (s *Store) Collections() []string {
	return slices.Clone(s.names)
}

// Has reports whether name is a registered collection.
func (s *Store) Has(name string) bool {
	_, ok := s.colls[name]
	return ok
}

// Create stores a copy of fields with id, createdAt and updatedAt assigned.
// A missing or empty id is replaced by a fresh UUID; createdAt and updatedAt
// are always set by the store.
func (s *Store) Create(ctx context.Context, name string, fields record.Record) (out record.Record, err error) {
	defer s.observe(name, "create", time.Now(), &err)

	c, ok := s.colls[name]
	if !ok {
		return nil, &CollectionNotFoundError{Collection: name}
	}

	rec, err := record.Normalize(fields)
	if err != nil {
		return nil, err
	}
	id := idOf(rec[record.FieldID])
	if id == "" {
		id = s.newID()
	}
	rec[record.FieldID] = id

	c.mu.Lock()
	defer c.mu.Unlock()

	if indexOf(c.records, id) >= 0 {
		return nil, &DuplicateIDError{Collection: name, ID: id}
	}
	now := clock.Format(s.clock.Now())
	rec[record.FieldCreatedAt] = now
	rec[record.FieldUpdatedAt] = now

	next := make([]record.Record, len(c.records), len(c.records)+1)
	copy(next, c.records)
	c.records = append(next, rec)
	s.observer.ObserveSize(name, len(c.records))

	if err := s.persist(ctx, name, c.records); err != nil {
		return nil, &PersistenceError{Collection: name, Op: "create", Err: err}
	}
	return rec.Clone(), nil
}

// Scan yields a copy of every record in name matching filter, in insertion
// order. The collection is snapshotted when Scan is called; records are
// cloned lazily as they are yielded. Unknown collections yield nothing.
func (s *Store) Scan(name string, filter query.Filter) iter.Seq[record.Record] {
	snap := s.snapshot(name)
	f := maps.Clone(filter)
	return func(yield func(record.Record) bool) {
		for _, r := range snap {
			if !query.Match(r, f) {
				continue
			}
			if !yield(r.Clone()) {
				return
			}
		}
	}
}

// FindAll returns copies of the matching records. An empty filter returns
// the whole collection; an unknown collection returns an empty slice.
func (s *Store) FindAll(name string, filter query.Filter) []record.Record {
	defer s.observe(name, "find", time.Now(), nil)
	out := []record.Record{}
	for r := range s.Scan(name, filter) {
		out = append(out, r)
	}
	return out
}

// FindOne returns the first record matching filter.
func (s *Store) FindOne(name string, filter query.Filter) (record.Record, bool) {
	defer s.observe(name, "find", time.Now(), nil)
	for r := range s.Scan(name, filter) {
		return r, true
	}
	return nil, false
}

// FindByID returns the record whose id equals id exactly.
func (s *Store) FindByID(name, id string) (record.Record, bool) {
	defer s.observe(name, "find", time.Now(), nil)
	snap := s.snapshot(name)
	if i := indexOf(snap, id); i >= 0 {
		return snap[i].Clone(), true
	}
	return nil, false
}

// Count returns the number of records matching filter.
func (s *Store) Count(name string, filter query.Filter) int {
	n := 0
	for _, r := range s.snapshot(name) {
		if query.Match(r, filter) {
			n++
		}
	}
	return n
}

// Update merges patch into the record with the given id and refreshes
// updatedAt. Keys id, createdAt and updatedAt in patch are ignored. Dotted
// keys follow the store's PatchMode.
func (s *Store) Update(ctx context.Context, name, id string, patch record.Record) (out record.Record, err error) {
	defer s.observe(name, "update", time.Now(), &err)

	c, ok := s.colls[name]
	if !ok {
		return nil, &CollectionNotFoundError{Collection: name}
	}

	norm, err := record.Normalize(patch)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := indexOf(c.records, id)
	if idx < 0 {
		return nil, &RecordNotFoundError{Collection: name, ID: id}
	}

	clean := make(record.Record, len(norm))
	for k, v := range norm {
		if s.protected(k) {
			continue
		}
		clean[k] = v
	}
	var merged record.Record
	if s.patchMode == PatchLiteral {
		merged = record.MergeLiteral(c.records[idx], clean)
	} else {
		merged = record.MergeNested(c.records[idx], clean)
	}
	merged[record.FieldUpdatedAt] = clock.Format(s.clock.Now())

	next := slices.Clone(c.records)
	next[idx] = merged
	c.records = next

	if err := s.persist(ctx, name, c.records); err != nil {
		return nil, &PersistenceError{Collection: name, Op: "update", Err: err}
	}
	return merged.Clone(), nil
}

// Delete removes and returns the record with the given id.
func (s *Store) Delete(ctx context.Context, name, id string) (out record.Record, err error) {
	defer s.observe(name, "delete", time.Now(), &err)

	c, ok := s.colls[name]
	if !ok {
		return nil, &CollectionNotFoundError{Collection: name}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := indexOf(c.records, id)
	if idx < 0 {
		return nil, &RecordNotFoundError{Collection: name, ID: id}
	}
	removed := c.records[idx]
	c.records = slices.Delete(slices.Clone(c.records), idx, idx+1)
	s.observer.ObserveSize(name, len(c.records))

	if err := s.persist(ctx, name, c.records); err != nil {
		return nil, &PersistenceError{Collection: name, Op: "delete", Err: err}
	}
	return removed.Clone(), nil
}

func (s *Store) protected(key string) bool {
	if s.patchMode == PatchNested {
		key, _, _ = strings.Cut(key, ".")
	}
	switch key {
	case record.FieldID, record.FieldCreatedAt, record.FieldUpdatedAt:
		return true
	}
	return false
}

func (s *Store) snapshot(name string) []record.Record {
	c, ok := s.colls[name]
	if !ok {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.records
}

// persist must be called with the collection's write lock held.
func (s *Store) persist(ctx context.Context, name string, recs []record.Record) error {
	data, err := encode(recs)
	if err != nil {
		return err
	}
	return s.backend.Put(ctx, name, data)
}

func (s *Store) observe(name, op string, start time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	s.observer.ObserveOperation(name, op, time.Since(start), err)
}

func indexOf(recs []record.Record, id string) int {
	return slices.IndexFunc(recs, func(r record.Record) bool { return r.ID() == id })
}

// idOf accepts string ids as-is and renders scalar ids (numbers, bools) as
// text. null, objects and arrays count as absent.
func idOf(v any) string {
	switch v.(type) {
	case nil, map[string]any, record.Record, []any:
		return ""
	}
	str, _ := query.Stringify(v)
	return str
}

// encode renders a collection as a pretty-printed JSON array.
func encode(recs []record.Record) ([]byte, error) {
	if recs == nil {
		recs = []record.Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recs); err != nil {
		return nil, fmt.Errorf("encoding collection: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func decode(data []byte) ([]record.Record, error) {
	var raw []record.Record
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding collection: %w", err)
	}
	if raw == nil {
		return nil, errors.New("decoding collection: not a JSON array")
	}
	out := make([]record.Record, 0, len(raw))
	for _, r := range raw {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

// Package seed supplies the initial contents of collections that have never
// been persisted.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"artisanverse/internal/clock"
	"artisanverse/internal/record"
)

//go:embed defaults.json
var defaultsJSON []byte

// Provider returns the seed records for a collection (nil when it has none).
type Provider interface {
	Seed(collection string) []record.Record
}

// Set maps collection names to seed records.
type Set map[string][]record.Record

// Seed returns deep copies of the records seeded for collection.
func (s Set) Seed(collection string) []record.Record {
	recs := s[collection]
	if recs == nil {
		return nil
	}
	out := make([]record.Record, len(recs))
	for i, r := range recs {
		out[i] = r.Clone()
	}
	return out
}

// Collections returns the seeded collection names, sorted.
func (s Set) Collections() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge returns a Set holding s overlaid with other: a collection present in
// other replaces the one in s entirely.
func (s Set) Merge(other Set) Set {
	out := make(Set, len(s)+len(other))
	for name, recs := range s {
		out[name] = slices.Clone(recs)
	}
	for name, recs := range other {
		out[name] = slices.Clone(recs)
	}
	return out
}

// Defaults returns the built-in marketplace seed: a buyer, an artisan, an
// admin and one product. Records are stamped with createdAt = now.
func Defaults() Set {
	set, err := parseJSON(defaultsJSON)
	if err != nil {
		panic(fmt.Sprintf("seed: embedded defaults: %v", err))
	}
	set.stamp(time.Now())
	return set
}

// LoadFile reads a YAML (or JSON, which is valid YAML) document mapping
// collection names to record lists and layers it over Defaults.
func LoadFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	var doc map[string][]map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	overrides := make(Set, len(doc))
	for name, items := range doc {
		recs := make([]record.Record, 0, len(items))
		for i, item := range items {
			rec, err := record.Normalize(item)
			if err != nil {
				return nil, fmt.Errorf("seed %s[%d]: %w", name, i, err)
			}
			recs = append(recs, rec)
		}
		overrides[name] = recs
	}
	overrides.stamp(time.Now())
	return Defaults().Merge(overrides), nil
}

func parseJSON(data []byte) (Set, error) {
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, err
	}
	return set, nil
}

// stamp fills a missing createdAt the way records seeded at first start
// would have received it.
func (s Set) stamp(now time.Time) {
	ts := clock.Format(now)
	for _, recs := range s {
		for _, r := range recs {
			if r == nil {
				continue
			}
			if _, ok := r[record.FieldCreatedAt]; !ok {
				r[record.FieldCreatedAt] = ts
			}
		}
	}
}

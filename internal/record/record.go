// Package record defines the untyped record shared by every collection.
package record

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"artisanverse/internal/clock"
)

// Metadata field names maintained by the record store.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// Record is a JSON object. Values are kept JSON-canonical: map[string]any,
// []any, string, float64, bool or nil.
type Record map[string]any

// ID returns the record id, or "" if absent or not a string.
func (r Record) ID() string {
	s, _ := r[FieldID].(string)
	return s
}

// CreatedAt parses the createdAt stamp. ok is false if absent or malformed.
func (r Record) CreatedAt() (time.Time, bool) {
	return r.stamp(FieldCreatedAt)
}

// UpdatedAt parses the updatedAt stamp. ok is false if absent or malformed.
func (r Record) UpdatedAt() (time.Time, bool) {
	return r.stamp(FieldUpdatedAt)
}

func (r Record) stamp(field string) (time.Time, bool) {
	s, ok := r[field].(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := clock.Parse(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Lookup reads a dotted path ("payment.status"). A literal top-level key that
// contains dots wins over the nested interpretation.
func (r Record) Lookup(path string) (any, bool) {
	if v, ok := r[path]; ok {
		return v, true
	}
	var cur any = map[string]any(r)
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return Record(cloneMap(r))
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case Record:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Normalize converts v (a Record, a map or any JSON-encodable struct) into a
// Record holding only JSON-canonical values.
func Normalize(v any) (Record, error) {
	if v == nil {
		return Record{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	var out Record
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("record must be a JSON object: %w", err)
	}
	if out == nil {
		out = Record{}
	}
	return out, nil
}

// Meta carries the store-managed fields for typed records. Embed it in a
// collection schema struct.
type Meta struct {
	ID        string    `json:"id,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

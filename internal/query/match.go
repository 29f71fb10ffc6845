// Package query implements the filtering, sorting and pagination helpers
// shared by the record store and its callers.
package query

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"artisanverse/internal/record"
)

// Filter constrains records by top-level field. A string value matches any
// field whose stringified value contains it, ignoring case. Any other value
// must equal the field exactly. A nil value places no constraint.
type Filter map[string]any

// Match reports whether rec satisfies every constraint in f. An empty filter
// matches everything.
func Match(rec record.Record, f Filter) bool {
	for key, want := range f {
		if want == nil {
			continue
		}
		got, present := rec[key]
		if s, ok := want.(string); ok {
			if !present {
				return false
			}
			str, ok := Stringify(got)
			if !ok || !strings.Contains(strings.ToLower(str), strings.ToLower(s)) {
				return false
			}
			continue
		}
		if !present || !Equal(got, want) {
			return false
		}
	}
	return true
}

// Stringify renders a field value the way a browser client would see it
// coerced to text: numbers in shortest form, arrays comma-joined, objects as
// "[object Object]". ok is false for null.
func Stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i], _ = Stringify(e)
		}
		return strings.Join(parts, ","), true
	case map[string]any, record.Record:
		return "[object Object]", true
	}
	if f, ok := Number(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// Equal compares two field values. Numbers compare by value regardless of Go
// type; composite values compare by their JSON encoding.
func Equal(a, b any) bool {
	if af, ok := Number(a); ok {
		bf, ok := Number(b)
		return ok && af == bf
	}
	switch at := a.(type) {
	case nil:
		return b == nil
	case string:
		bt, ok := b.(string)
		return ok && at == bt
	case bool:
		bt, ok := b.(bool)
		return ok && at == bt
	}
	aj, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bj, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(aj, bj)
}

// Number converts any Go numeric value or json.Number to float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

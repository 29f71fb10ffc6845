package query

import (
	"strings"

	"artisanverse/internal/record"
)

// Search reports whether any whitespace-separated term of q occurs,
// case-insensitively, in the text of the given fields. Array fields
// contribute their elements joined by spaces. A blank query matches.
func Search(rec record.Record, fields []string, q string) bool {
	terms := strings.Fields(strings.ToLower(q))
	if len(terms) == 0 {
		return true
	}
	var b strings.Builder
	for _, f := range fields {
		v, ok := rec.Lookup(f)
		if !ok {
			continue
		}
		if arr, isArr := v.([]any); isArr {
			for _, e := range arr {
				s, _ := Stringify(e)
				b.WriteString(s)
				b.WriteByte(' ')
			}
			continue
		}
		s, _ := Stringify(v)
		b.WriteString(s)
		b.WriteByte(' ')
	}
	text := strings.ToLower(b.String())
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// InRange reports whether the numeric field lies within [lo, hi]. A nil bound
// is open. With no bounds every record passes; with any bound a missing or
// non-numeric field fails.
func InRange(rec record.Record, field string, lo, hi *float64) bool {
	if lo == nil && hi == nil {
		return true
	}
	v, ok := rec.Lookup(field)
	if !ok {
		return false
	}
	f, ok := Number(v)
	if !ok {
		return false
	}
	if lo != nil && f < *lo {
		return false
	}
	if hi != nil && f > *hi {
		return false
	}
	return true
}

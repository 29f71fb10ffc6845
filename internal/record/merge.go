package record

import (
	"slices"
	"strings"
)

// MergeLiteral returns a copy of base with every patch key written at the top
// level. Dotted keys are stored as-is, so {"payment.status": "x"} creates a
// field literally named "payment.status".
func MergeLiteral(base, patch Record) Record {
	out := make(Record, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = cloneValue(v)
	}
	return out
}

// MergeNested returns a copy of base with patch applied, expanding dotted keys
// into nested objects: {"payment.status": "x"} sets base["payment"]["status"].
// Plain keys are applied first, then dotted keys in sorted order, so
// {"payment": {...}, "payment.status": "x"} always amends the new payment
// object. Intermediate values that are missing or not objects are replaced by
// objects. base is never mutated; maps along a written path are copied.
func MergeNested(base, patch Record) Record {
	out := make(Record, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	var dotted []string
	for k, v := range patch {
		if strings.Contains(k, ".") {
			dotted = append(dotted, k)
			continue
		}
		out[k] = cloneValue(v)
	}
	slices.Sort(dotted)
	for _, k := range dotted {
		setPath(out, strings.Split(k, "."), cloneValue(patch[k]))
	}
	return out
}

func setPath(m map[string]any, segs []string, v any) {
	head := segs[0]
	if len(segs) == 1 {
		m[head] = v
		return
	}
	var child map[string]any
	if existing, ok := m[head].(map[string]any); ok {
		child = make(map[string]any, len(existing)+1)
		for k, ev := range existing {
			child[k] = ev
		}
	} else {
		child = make(map[string]any, 1)
	}
	setPath(child, segs[1:], v)
	m[head] = child
}

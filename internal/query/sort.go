package query

import (
	"cmp"
	"slices"
	"strings"

	"artisanverse/internal/clock"
	"artisanverse/internal/record"
)

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseOrder maps user input to an Order. Anything but "asc" sorts descending,
// which is what listing endpoints default to.
func ParseOrder(s string) Order {
	if strings.EqualFold(strings.TrimSpace(s), string(Asc)) {
		return Asc
	}
	return Desc
}

// Sort orders recs in place by field. The sort is stable; records missing the
// field (or holding null) go last in either direction.
func Sort(recs []record.Record, field string, order Order) {
	slices.SortStableFunc(recs, func(a, b record.Record) int {
		av, aok := a.Lookup(field)
		bv, bok := b.Lookup(field)
		aok = aok && av != nil
		bok = bok && bv != nil
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}
		c := compareValues(av, bv)
		if order == Desc {
			return -c
		}
		return c
	})
}

func compareValues(a, b any) int {
	if af, ok := Number(a); ok {
		if bf, ok := Number(b); ok {
			return cmp.Compare(af, bf)
		}
	}
	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		at, aerr := clock.Parse(as)
		bt, berr := clock.Parse(bs)
		if aerr == nil && berr == nil {
			return at.Compare(bt)
		}
		return strings.Compare(as, bs)
	}
	ab, aBool := a.(bool)
	bb, bBool := b.(bool)
	if aBool && bBool {
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	}
	sa, _ := Stringify(a)
	sb, _ := Stringify(b)
	return strings.Compare(sa, sb)
}

package query

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"artisanverse/internal/record"
)

func TestMatch(t *testing.T) {
	rec := record.Record{
		"title":    "Abcdef",
		"price":    285.0,
		"isActive": true,
		"tags":     []any{"handmade", "silk"},
		"artisan":  map[string]any{"id": "a1"},
		"note":     nil,
	}
	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", Filter{}, true},
		{"nil filter", nil, true},
		{"substring case-insensitive", Filter{"title": "bcd"}, true},
		{"substring upper", Filter{"title": "ABC"}, true},
		{"substring miss", Filter{"title": "xyz"}, false},
		{"string against number", Filter{"price": "28"}, true},
		{"string against bool", Filter{"isActive": "true"}, true},
		{"string against array", Filter{"tags": "made,si"}, true},
		{"string against object", Filter{"artisan": "object"}, true},
		{"string against null", Filter{"note": "x"}, false},
		{"string against missing", Filter{"missing": "x"}, false},
		{"exact number", Filter{"price": 285}, true},
		{"exact number float", Filter{"price": 285.0}, true},
		{"number mismatch", Filter{"price": 284}, false},
		{"exact bool", Filter{"isActive": true}, true},
		{"bool mismatch", Filter{"isActive": false}, false},
		{"bool against missing", Filter{"deleted": false}, false},
		{"nil value skipped", Filter{"title": nil}, true},
		{"composite equal", Filter{"tags": []string{"handmade", "silk"}}, true},
		{"composite differs", Filter{"tags": []string{"silk"}}, false},
		{"all keys must match", Filter{"title": "abc", "price": 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(rec, tt.filter); got != tt.want {
				t.Fatalf("Match(%v) = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
		ok   bool
	}{
		{"x", "x", true},
		{4.9, "4.9", true},
		{float64(347), "347", true},
		{int64(12), "12", true},
		{false, "false", true},
		{[]any{"a", 1.0, nil}, "a,1,", true},
		{map[string]any{}, "[object Object]", true},
		{nil, "", false},
	}
	for _, tt := range tests {
		got, ok := Stringify(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Stringify(%#v) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestPaginateMiddlePage(t *testing.T) {
	p := Paginate(seq(97), 3, 20)
	if diff := cmp.Diff(seq(60)[40:], p.Items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
	want := Pagination{CurrentPage: 3, TotalPages: 5, TotalItems: 97, HasNext: true, HasPrev: true}
	if diff := cmp.Diff(want, p.Pagination); diff != "" {
		t.Fatalf("pagination mismatch (-want +got):\n%s", diff)
	}
}

func TestPaginateEmpty(t *testing.T) {
	p := Paginate([]int{}, 1, 20)
	if p.Items == nil || len(p.Items) != 0 {
		t.Fatalf("expected empty non-nil items, got %#v", p.Items)
	}
	want := Pagination{CurrentPage: 1, TotalPages: 0, TotalItems: 0}
	if diff := cmp.Diff(want, p.Pagination); diff != "" {
		t.Fatalf("pagination mismatch (-want +got):\n%s", diff)
	}
}

func TestPaginateLastAndOutOfRange(t *testing.T) {
	last := Paginate(seq(97), 5, 20)
	if len(last.Items) != 17 || last.Items[0] != 81 || last.Pagination.HasNext {
		t.Fatalf("last page: %+v", last)
	}

	past := Paginate(seq(97), 9, 20)
	if len(past.Items) != 0 {
		t.Fatalf("page past end should be empty, got %v", past.Items)
	}
	if past.Pagination.HasNext || !past.Pagination.HasPrev {
		t.Fatalf("page past end flags: %+v", past.Pagination)
	}
}

func TestPaginateNormalizesInputs(t *testing.T) {
	p := Paginate(seq(5), 0, -3)
	if p.Pagination.CurrentPage != 1 {
		t.Fatalf("page should normalize to 1, got %d", p.Pagination.CurrentPage)
	}
	if diff := cmp.Diff([]int{1}, p.Items); diff != "" {
		t.Fatalf("limit should normalize to 1 (-want +got):\n%s", diff)
	}
	if p.Pagination.TotalPages != 5 {
		t.Fatalf("TotalPages: got %d, want 5", p.Pagination.TotalPages)
	}
}

func TestPaginateHugeInputs(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		want        []int
		pages       int
		hasPrev     bool
	}{
		{"huge page", math.MaxInt, 2, []int{}, 2, true},
		{"huge limit", 1, math.MaxInt, []int{1, 2, 3}, 1, false},
		{"huge both", math.MaxInt, math.MaxInt, []int{}, 1, true},
		{"second page of huge limit", 2, math.MaxInt, []int{}, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(seq(3), tt.page, tt.limit)
			if diff := cmp.Diff(tt.want, p.Items); diff != "" {
				t.Fatalf("items (-want +got):\n%s", diff)
			}
			want := Pagination{CurrentPage: tt.page, TotalPages: tt.pages, TotalItems: 3, HasPrev: tt.hasPrev}
			if diff := cmp.Diff(want, p.Pagination); diff != "" {
				t.Fatalf("pagination (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPaginateCopiesItems(t *testing.T) {
	src := seq(3)
	p := Paginate(src, 1, 3)
	p.Items[0] = 99
	if src[0] != 1 {
		t.Fatal("page aliases the input slice")
	}
}

func ids(recs []record.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID()
	}
	return out
}

func TestSort(t *testing.T) {
	mk := func() []record.Record {
		return []record.Record{
			{"id": "a", "rating": 4.5, "title": "Bowl", "createdAt": "2026-01-02T00:00:00.000Z"},
			{"id": "b", "rating": 4.9, "title": "anklet", "createdAt": "2026-01-03T00:00:00.000Z"},
			{"id": "c", "title": "Cup", "createdAt": "2026-01-01T00:00:00.000Z"},
			{"id": "d", "rating": 4.5, "title": "Dish", "createdAt": "2026-01-04T00:00:00.000Z"},
		}
	}
	tests := []struct {
		field string
		order Order
		want  []string
	}{
		{"rating", Desc, []string{"b", "a", "d", "c"}},
		{"rating", Asc, []string{"a", "d", "b", "c"}},
		{"createdAt", Desc, []string{"d", "b", "a", "c"}},
		{"title", Asc, []string{"a", "c", "d", "b"}},
		{"missing", Asc, []string{"a", "b", "c", "d"}},
	}
	for _, tt := range tests {
		recs := mk()
		Sort(recs, tt.field, tt.order)
		if diff := cmp.Diff(tt.want, ids(recs)); diff != "" {
			t.Errorf("Sort(%s, %s) mismatch (-want +got):\n%s", tt.field, tt.order, diff)
		}
	}
}

func TestParseOrder(t *testing.T) {
	for in, want := range map[string]Order{"asc": Asc, " ASC ": Asc, "desc": Desc, "": Desc, "sideways": Desc} {
		if got := ParseOrder(in); got != want {
			t.Errorf("ParseOrder(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSearch(t *testing.T) {
	rec := record.Record{
		"title":       "Royal Peacock Mandala Saree",
		"description": "Hand-block printed on pure silk",
		"tags":        []any{"handmade", "ceremonial"},
	}
	fields := []string{"title", "description", "category", "tags"}
	tests := []struct {
		q    string
		want bool
	}{
		{"", true},
		{"peacock", true},
		{"SILK", true},
		{"pottery ceremonial", true},
		{"pottery clay", false},
		{"made cere", true},
	}
	for _, tt := range tests {
		if got := Search(rec, fields, tt.q); got != tt.want {
			t.Errorf("Search(%q) = %v, want %v", tt.q, got, tt.want)
		}
	}
}

func TestInRange(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	rec := record.Record{"price": 285.0, "title": "x"}
	tests := []struct {
		name   string
		field  string
		lo, hi *float64
		want   bool
	}{
		{"open", "price", nil, nil, true},
		{"inside", "price", f(100), f(300), true},
		{"inclusive bounds", "price", f(285), f(285), true},
		{"below", "price", f(300), nil, false},
		{"above", "price", nil, f(200), false},
		{"non-numeric", "title", f(0), nil, false},
		{"missing", "weight", nil, f(1), false},
		{"missing open", "weight", nil, nil, true},
	}
	for _, tt := range tests {
		if got := InRange(rec, tt.field, tt.lo, tt.hi); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

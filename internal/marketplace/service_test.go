package marketplace

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"artisanverse/internal/logging"
	"artisanverse/internal/query"
	"artisanverse/internal/record"
	"artisanverse/internal/recordstore"
	"artisanverse/internal/seed"
	"artisanverse/internal/store/memory"
)

func newService(t *testing.T) (*Service, *recordstore.Store) {
	t.Helper()
	s := recordstore.New(memory.New(), recordstore.WithSeeds(seed.Defaults()))
	s.Initialize(context.Background())
	return New(s), s
}

func addProduct(t *testing.T, s *recordstore.Store, fields record.Record) string {
	t.Helper()
	base := record.Record{"isActive": true, "artisanId": "user_artisan_001"}
	for k, v := range fields {
		base[k] = v
	}
	rec, err := s.Create(context.Background(), Products, base)
	if err != nil {
		t.Fatal(err)
	}
	return rec.ID()
}

func ptr(f float64) *float64 { return &f }

func TestFindUserByEmail(t *testing.T) {
	m, _ := newService(t)

	u, ok, err := m.FindUserByEmail("MEERA@example.com")
	if err != nil || !ok {
		t.Fatalf("FindUserByEmail: %v, %v", ok, err)
	}
	if u.ID != "user_artisan_001" || u.ArtisanProfile == nil || u.ArtisanProfile.TotalOrders != 347 {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.FullName() != "Meera Sharma" {
		t.Fatalf("FullName = %q", u.FullName())
	}

	for _, email := range []string{"example.com", "", "nobody@example.com"} {
		if _, ok, _ := m.FindUserByEmail(email); ok {
			t.Errorf("%q should not match a user", email)
		}
	}
}

func TestProductsByArtisan(t *testing.T) {
	m, s := newService(t)
	addProduct(t, s, record.Record{"title": "Retired print", "isActive": false})
	addProduct(t, s, record.Record{"title": "Other artisan", "artisanId": "user_artisan_0012"})
	extra := addProduct(t, s, record.Record{"title": "Indigo scarf"})

	got, err := m.ProductsByArtisan("user_artisan_001")
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	if diff := cmp.Diff([]string{"product_001", extra}, ids); diff != "" {
		t.Fatalf("products (-want +got):\n%s", diff)
	}
}

func TestUserOrders(t *testing.T) {
	m, _ := newService(t)
	ctx := context.Background()
	for _, buyer := range []string{"user_buyer_001", "user_buyer_002", "user_buyer_001"} {
		if _, err := m.Orders.Create(ctx, Order{BuyerID: buyer, Status: "pending"}); err != nil {
			t.Fatal(err)
		}
	}
	orders, err := m.UserOrders("user_buyer_001")
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if none, _ := m.UserOrders("user_buyer_00"); len(none) != 0 {
		t.Fatal("buyer ids must match exactly")
	}
}

func TestAnalytics(t *testing.T) {
	m, s := newService(t)
	ctx := context.Background()
	addProduct(t, s, record.Record{"title": "Hidden", "isActive": false})
	if _, err := m.Orders.Create(ctx, Order{BuyerID: "user_buyer_001", Total: 100}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Orders.Create(ctx, Order{BuyerID: "user_buyer_001", Pricing: &Pricing{Total: 50.5}}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Orders.Create(ctx, Order{BuyerID: "user_buyer_001"}); err != nil {
		t.Fatal(err)
	}

	want := Analytics{
		TotalUsers:    3,
		TotalBuyers:   1,
		TotalArtisans: 1,
		TotalProducts: 1,
		TotalOrders:   3,
		TotalRevenue:  150.5,
	}
	if diff := cmp.Diff(want, m.Analytics()); diff != "" {
		t.Fatalf("analytics (-want +got):\n%s", diff)
	}
}

func TestListProductsDefaults(t *testing.T) {
	m, _ := newService(t)
	page, err := m.ListProducts(ProductQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected the seeded product, got %d", len(page.Items))
	}
	item := page.Items[0]
	if item.Title != "Royal Peacock Mandala Block Print Saree" {
		t.Fatalf("unexpected product %q", item.Title)
	}
	if item.Artisan == nil || item.Artisan.Name != "Meera Sharma" || item.Artisan.Rating == nil || *item.Artisan.Rating != 4.9 {
		t.Fatalf("unexpected artisan card: %+v", item.Artisan)
	}
	want := query.Pagination{CurrentPage: 1, TotalPages: 1, TotalItems: 1}
	if diff := cmp.Diff(want, page.Pagination); diff != "" {
		t.Fatalf("pagination (-want +got):\n%s", diff)
	}
}

func TestListProductsFiltersAndSorting(t *testing.T) {
	m, s := newService(t)
	addProduct(t, s, record.Record{"title": "Kente stole", "price": 120.0, "category": "Textiles", "region": "West Africa", "country": "Ghana", "tags": []any{"woven"}})
	addProduct(t, s, record.Record{"title": "Brass lamp", "price": 60.0, "category": "Home Decor", "region": "South Asia", "country": "India"})
	addProduct(t, s, record.Record{"title": "Clay pot", "price": 25.0, "category": "Pottery", "region": "South Asia", "country": "India", "description": "wheel thrown"})
	addProduct(t, s, record.Record{"title": "Retired weave", "price": 10.0, "category": "Textiles", "isActive": false})
	addProduct(t, s, record.Record{"title": "Guest piece", "price": 75.0, "artisanId": "user_artisan_002"})

	titles := func(page query.Page[ProductListing]) []string {
		out := []string{}
		for _, p := range page.Items {
			out = append(out, p.Title)
		}
		return out
	}

	tests := []struct {
		name string
		q    ProductQuery
		want []string
	}{
		{
			name: "newest first by default",
			q:    ProductQuery{},
			want: []string{"Guest piece", "Clay pot", "Brass lamp", "Kente stole", "Royal Peacock Mandala Block Print Saree"},
		},
		{
			name: "category substring",
			q:    ProductQuery{Category: "textile", SortBy: "price", SortOrder: query.Asc},
			want: []string{"Kente stole", "Royal Peacock Mandala Block Print Saree"},
		},
		{
			name: "region and country",
			q:    ProductQuery{Region: "south asia", Country: "india", SortBy: "price", SortOrder: query.Desc},
			want: []string{"Royal Peacock Mandala Block Print Saree", "Brass lamp", "Clay pot"},
		},
		{
			name: "price range",
			q:    ProductQuery{MinPrice: ptr(50), MaxPrice: ptr(130), SortBy: "price", SortOrder: query.Asc},
			want: []string{"Brass lamp", "Guest piece", "Kente stole"},
		},
		{
			name: "search any term",
			q:    ProductQuery{Search: "WOVEN thrown", SortBy: "title", SortOrder: query.Asc},
			want: []string{"Clay pot", "Kente stole"},
		},
		{
			name: "artisan exact",
			q:    ProductQuery{Artisan: "user_artisan_002"},
			want: []string{"Guest piece"},
		},
		{
			name: "second page",
			q:    ProductQuery{Page: 2, Limit: 2, SortBy: "price", SortOrder: query.Asc},
			want: []string{"Guest piece", "Kente stole"},
		},
		{
			name: "past the end",
			q:    ProductQuery{Page: 9, Limit: 2},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := m.ListProducts(tt.q)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, titles(page)); diff != "" {
				t.Fatalf("titles (-want +got):\n%s", diff)
			}
		})
	}

	page, _ := m.ListProducts(ProductQuery{Page: 2, Limit: 2})
	want := query.Pagination{CurrentPage: 2, TotalPages: 3, TotalItems: 5, HasNext: true, HasPrev: true}
	if diff := cmp.Diff(want, page.Pagination); diff != "" {
		t.Fatalf("pagination (-want +got):\n%s", diff)
	}

	guest, _ := m.ListProducts(ProductQuery{Artisan: "user_artisan_002"})
	if len(guest.Items) != 1 || guest.Items[0].Artisan != nil {
		t.Fatal("a product whose artisan has no user record should carry a nil card")
	}
}

func TestMalformedRecordsAreSkipped(t *testing.T) {
	c := logging.CaptureForTest()
	defer c.Restore()

	m, s := newService(t)
	ctx := context.Background()
	addProduct(t, s, record.Record{"id": "good", "title": "Good", "price": 12.0, "artisanId": "artisan_x"})
	addProduct(t, s, record.Record{"id": "broken", "title": "Broken", "price": "12", "artisanId": "artisan_x"})
	if _, err := s.Create(ctx, Orders, record.Record{"id": "o1", "buyerId": "buyer_x", "total": 20.0}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx, Orders, record.Record{"id": "o2", "buyerId": "buyer_x", "total": "lots"}); err != nil {
		t.Fatal(err)
	}

	page, err := m.ListProducts(ProductQuery{Artisan: "artisan_x"})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 1 || page.Items[0].Title != "Good" {
		t.Fatalf("listing = %+v", page.Items)
	}
	if page.Pagination.TotalItems != 1 {
		t.Fatalf("total items = %d, want 1", page.Pagination.TotalItems)
	}

	products, err := m.ProductsByArtisan("artisan_x")
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 1 || products[0].ID != "good" {
		t.Fatalf("artisan products = %+v", products)
	}

	orders, err := m.UserOrders("buyer_x")
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 || orders[0].ID != "o1" {
		t.Fatalf("orders = %+v", orders)
	}

	if !c.HasAttr(slog.LevelWarn, "skipping malformed record", "id", "broken") {
		t.Fatal("expected a warning for the malformed product")
	}
	if !c.HasAttr(slog.LevelWarn, "skipping malformed record", "id", "o2") {
		t.Fatal("expected a warning for the malformed order")
	}
}

func TestOrderAmountCoercesNumbers(t *testing.T) {
	tests := []struct {
		name string
		rec  record.Record
		want float64
	}{
		{"float total", record.Record{"total": 12.5}, 12.5},
		{"int total", record.Record{"total": 25}, 25},
		{"int64 total", record.Record{"total": int64(7)}, 7},
		{"json number", record.Record{"total": json.Number("3.25")}, 3.25},
		{"nested int", record.Record{"pricing": map[string]any{"total": 40}}, 40},
		{"zero total falls back", record.Record{"total": 0, "pricing": map[string]any{"total": uint16(9)}}, 9},
		{"text total", record.Record{"total": "12"}, 0},
		{"missing", record.Record{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := orderAmount(tt.rec); got != tt.want {
				t.Fatalf("orderAmount = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnalyticsCountsIntegerTotals(t *testing.T) {
	m, s := newService(t)
	if _, err := s.Create(context.Background(), Orders, record.Record{"buyerId": "user_buyer_001", "total": 25}); err != nil {
		t.Fatal(err)
	}
	if got := m.Analytics().TotalRevenue; got != 25 {
		t.Fatalf("revenue = %v, want 25", got)
	}
}

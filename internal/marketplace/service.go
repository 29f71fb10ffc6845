package marketplace

import (
	"strings"

	"artisanverse/internal/logging"
	"artisanverse/internal/query"
	"artisanverse/internal/record"
	"artisanverse/internal/recordstore"
)

var logger = logging.For("marketplace")

// DefaultPageSize is used when a listing asks for no explicit limit.
const DefaultPageSize = 20

// searchFields are the product fields matched by a free-text search.
var searchFields = []string{"title", "description", "category", "tags"}

// Service bundles typed views of every marketplace collection.
type Service struct {
	store         *recordstore.Store
	Users         *recordstore.Collection[User]
	Products      *recordstore.Collection[Product]
	Orders        *recordstore.Collection[Order]
	Conversations *recordstore.Collection[Conversation]
	Reviews       *recordstore.Collection[Review]
	Workshops     *recordstore.Collection[Workshop]
}

func New(s *recordstore.Store) *Service {
	return &Service{
		store:         s,
		Users:         recordstore.Bind[User](s, Users),
		Products:      recordstore.Bind[Product](s, Products),
		Orders:        recordstore.Bind[Order](s, Orders),
		Conversations: recordstore.Bind[Conversation](s, Conversations),
		Reviews:       recordstore.Bind[Review](s, Reviews),
		Workshops:     recordstore.Bind[Workshop](s, Workshops),
	}
}

// FindUserByEmail returns the user whose email equals email, ignoring case.
func (m *Service) FindUserByEmail(email string) (User, bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return User{}, false, nil
	}
	for rec := range m.store.Scan(Users, query.Filter{"email": email}) {
		if e, _ := rec["email"].(string); strings.EqualFold(e, email) {
			u, err := recordstore.Decode[User](rec)
			return u, err == nil, err
		}
	}
	return User{}, false, nil
}

// ProductsByArtisan returns the artisan's active products.
func (m *Service) ProductsByArtisan(artisanID string) ([]Product, error) {
	out := []Product{}
	for rec := range m.store.Scan(Products, query.Filter{"isActive": true}) {
		if rec["artisanId"] != artisanID {
			continue
		}
		p, err := recordstore.Decode[Product](rec)
		if err != nil {
			skipMalformed(Products, rec, err)
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// UserOrders returns the orders placed by the buyer.
func (m *Service) UserOrders(userID string) ([]Order, error) {
	out := []Order{}
	for rec := range m.store.Scan(Orders, nil) {
		if rec["buyerId"] != userID {
			continue
		}
		o, err := recordstore.Decode[Order](rec)
		if err != nil {
			skipMalformed(Orders, rec, err)
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// Analytics summarizes the marketplace. Revenue sums each order's total,
// falling back to pricing.total.
func (m *Service) Analytics() Analytics {
	var a Analytics
	for rec := range m.store.Scan(Users, nil) {
		a.TotalUsers++
		switch rec["role"] {
		case RoleBuyer:
			a.TotalBuyers++
		case RoleArtisan:
			a.TotalArtisans++
		}
	}
	a.TotalProducts = m.store.Count(Products, query.Filter{"isActive": true})
	for rec := range m.store.Scan(Orders, nil) {
		a.TotalOrders++
		a.TotalRevenue += orderAmount(rec)
	}
	return a
}

func orderAmount(rec record.Record) float64 {
	for _, path := range []string{"total", "pricing.total"} {
		if v, ok := rec.Lookup(path); ok {
			if f, ok := query.Number(v); ok && f != 0 {
				return f
			}
		}
	}
	return 0
}

// skipMalformed logs a record that cannot be decoded into its typed view.
// Listings leave such records out instead of failing.
func skipMalformed(collection string, rec record.Record, err error) {
	logger.Warn("skipping malformed record", "collection", collection, "id", rec.ID(), "err", err)
}

// ProductQuery selects a page of the product catalogue. Text filters match
// case-insensitively by substring; Artisan must equal the artisan id.
type ProductQuery struct {
	Page      int
	Limit     int
	Category  string
	Region    string
	Country   string
	Artisan   string
	MinPrice  *float64
	MaxPrice  *float64
	Search    string
	SortBy    string
	SortOrder query.Order
}

// ListProducts runs the catalogue pipeline: active products, attribute
// filters, price range, free-text search, sort, paginate, then attach the
// artisan card to each product on the page. Products that do not decode are
// logged and left out of the listing and its totals.
func (m *Service) ListProducts(q ProductQuery) (query.Page[ProductListing], error) {
	filter := query.Filter{"isActive": true}
	for field, v := range map[string]string{"category": q.Category, "region": q.Region, "country": q.Country} {
		if v != "" {
			filter[field] = v
		}
	}

	var recs []record.Record
	decoded := make(map[string]Product)
	for rec := range m.store.Scan(Products, filter) {
		if q.Artisan != "" && rec["artisanId"] != q.Artisan {
			continue
		}
		if !query.InRange(rec, "price", q.MinPrice, q.MaxPrice) {
			continue
		}
		if !query.Search(rec, searchFields, q.Search) {
			continue
		}
		p, err := recordstore.Decode[Product](rec)
		if err != nil {
			skipMalformed(Products, rec, err)
			continue
		}
		decoded[rec.ID()] = p
		recs = append(recs, rec)
	}

	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = record.FieldCreatedAt
	}
	order := q.SortOrder
	if order == "" {
		order = query.Desc
	}
	query.Sort(recs, sortBy, order)

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	page := query.Paginate(recs, q.Page, limit)

	items := make([]ProductListing, 0, len(page.Items))
	artisans := make(map[string]*ArtisanSummary)
	for _, rec := range page.Items {
		p := decoded[rec.ID()]
		summary, seen := artisans[p.ArtisanID]
		if !seen {
			summary = m.artisanSummary(p.ArtisanID)
			artisans[p.ArtisanID] = summary
		}
		items = append(items, ProductListing{Product: p, Artisan: summary})
	}
	return query.Page[ProductListing]{Items: items, Pagination: page.Pagination}, nil
}

func (m *Service) artisanSummary(id string) *ArtisanSummary {
	if id == "" {
		return nil
	}
	u, ok, err := m.Users.Get(id)
	if err != nil || !ok {
		return nil
	}
	s := &ArtisanSummary{
		ID:        u.ID,
		Name:      u.FullName(),
		Avatar:    u.Avatar,
		CraftType: u.CraftType,
		Location:  u.Location,
	}
	if u.ArtisanProfile != nil {
		rating := u.ArtisanProfile.Rating
		s.Rating = &rating
	}
	return s
}

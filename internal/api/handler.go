// Package api serves the record store and the marketplace queries over HTTP.
package api

import (
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"artisanverse/internal/clock"
	"artisanverse/internal/idempotency"
	"artisanverse/internal/logging"
	"artisanverse/internal/marketplace"
	"artisanverse/internal/metrics"
	"artisanverse/internal/query"
	"artisanverse/internal/ratelimit"
	"artisanverse/internal/record"
	"artisanverse/internal/recordstore"
)

var logger = logging.For("api")

// Version is reported by the health endpoint.
const Version = "1.0.0"

const idempotencyHeader = "Idempotency-Key"

// listParams are the query parameters list endpoints consume themselves;
// any other parameter becomes a field filter.
var listParams = []string{"page", "limit", "sortBy", "sortOrder", "q"}

// secretFields never leave the server.
var secretFields = map[string][]string{
	marketplace.Users: {"password"},
}

// Options configures the middleware around the routes.
type Options struct {
	AllowedOrigins []string
	RateLimiter    *ratelimit.Limiter // nil disables rate limiting
	Metrics        *metrics.Metrics   // nil disables /metrics and request metrics
	MaxBodyBytes   int64              // 0 disables the cap
	Idempotency    *idempotency.Cache // nil ignores Idempotency-Key
}

// Handler routes API requests to the record store.
type Handler struct {
	store   *recordstore.Store
	market  *marketplace.Service
	opts    Options
	mux     *http.ServeMux
	root    http.Handler
	started time.Time
}

func New(s *recordstore.Store, opts Options) *Handler {
	h := &Handler{
		store:   s,
		market:  marketplace.New(s),
		opts:    opts,
		mux:     http.NewServeMux(),
		started: time.Now(),
	}
	h.routes()
	h.root = h.observe(h.cors(h.rateLimit(h.limitBody(h.mux))))
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.root.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.mux.HandleFunc("GET /health", h.health)

	h.mux.HandleFunc("GET /api/collections", h.listCollections)
	h.mux.HandleFunc("GET /api/collections/{collection}", h.listRecords)
	h.mux.HandleFunc("POST /api/collections/{collection}", h.createRecord)
	h.mux.HandleFunc("GET /api/collections/{collection}/{id}", h.getRecord)
	h.mux.HandleFunc("PUT /api/collections/{collection}/{id}", h.updateRecord)
	h.mux.HandleFunc("PATCH /api/collections/{collection}/{id}", h.updateRecord)
	h.mux.HandleFunc("DELETE /api/collections/{collection}/{id}", h.deleteRecord)

	h.mux.HandleFunc("GET /api/products", h.listProducts)
	h.mux.HandleFunc("GET /api/artisans/{id}/products", h.artisanProducts)
	h.mux.HandleFunc("GET /api/users/lookup", h.lookupUser)
	h.mux.HandleFunc("GET /api/users/{id}/orders", h.userOrders)
	h.mux.HandleFunc("GET /api/analytics", h.analytics)

	if h.opts.Metrics != nil {
		h.mux.Handle("GET /metrics", h.opts.Metrics.Handler())
	}
	h.mux.HandleFunc("/", h.notFound)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": clock.Format(time.Now()),
		"uptime":    time.Since(h.started).Seconds(),
		"version":   Version,
	})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Route "+r.Method+" "+r.URL.RequestURI()+" not found")
}

type collectionInfo struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (h *Handler) listCollections(w http.ResponseWriter, r *http.Request) {
	names := h.store.Collections()
	out := make([]collectionInfo, 0, len(names))
	for _, name := range names {
		out = append(out, collectionInfo{Name: name, Count: h.store.Count(name, nil)})
	}
	writeOK(w, http.StatusOK, "Collections retrieved successfully", out)
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("collection")
	if !h.store.Has(name) {
		writeStoreError(w, r, &recordstore.CollectionNotFoundError{Collection: name})
		return
	}

	params := r.URL.Query()
	filter := query.Filter{}
	for key, vals := range params {
		if slices.Contains(listParams, key) || len(vals) == 0 {
			continue
		}
		filter[key] = vals[0]
	}

	q := params.Get("q")
	var recs []record.Record
	for rec := range h.store.Scan(name, filter) {
		if q != "" && !query.Search(rec, slices.Sorted(maps.Keys(rec)), q) {
			continue
		}
		recs = append(recs, redact(name, rec))
	}

	if sortBy := params.Get("sortBy"); sortBy != "" {
		order := query.Asc
		if s := params.Get("sortOrder"); s != "" {
			order = query.ParseOrder(s)
		}
		query.Sort(recs, sortBy, order)
	}

	page := query.Paginate(recs, intParam(params.Get("page"), 1), intParam(params.Get("limit"), marketplace.DefaultPageSize))
	writePage(w, "Records retrieved successfully", page)
}

func (h *Handler) createRecord(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("collection")
	if !h.store.Has(name) {
		writeStoreError(w, r, &recordstore.CollectionNotFoundError{Collection: name})
		return
	}
	fields, err := readRecord(r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	var replayKey string
	if key := r.Header.Get(idempotencyHeader); key != "" && h.opts.Idempotency != nil {
		replayKey = name + "/" + key
		if id, ok := h.opts.Idempotency.Lookup(replayKey); ok {
			if rec, found := h.store.FindByID(name, id); found {
				writeOK(w, http.StatusOK, "Record already created", redact(name, rec))
				return
			}
		}
	}

	rec, err := h.store.Create(r.Context(), name, fields)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if replayKey != "" {
		h.opts.Idempotency.Remember(replayKey, rec.ID())
	}
	requestLogger(r).Info("record created", "collection", name, "id", rec.ID())
	writeOK(w, http.StatusCreated, "Record created successfully", redact(name, rec))
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	name, id := r.PathValue("collection"), r.PathValue("id")
	if !h.store.Has(name) {
		writeStoreError(w, r, &recordstore.CollectionNotFoundError{Collection: name})
		return
	}
	rec, ok := h.store.FindByID(name, id)
	if !ok {
		writeStoreError(w, r, &recordstore.RecordNotFoundError{Collection: name, ID: id})
		return
	}
	writeOK(w, http.StatusOK, "Record retrieved successfully", redact(name, rec))
}

func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request) {
	name, id := r.PathValue("collection"), r.PathValue("id")
	patch, err := readRecord(r)
	if err != nil {
		writeBodyError(w, err)
		return
	}
	rec, err := h.store.Update(r.Context(), name, id, patch)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	requestLogger(r).Info("record updated", "collection", name, "id", id)
	writeOK(w, http.StatusOK, "Record updated successfully", redact(name, rec))
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	name, id := r.PathValue("collection"), r.PathValue("id")
	rec, err := h.store.Delete(r.Context(), name, id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	requestLogger(r).Info("record deleted", "collection", name, "id", id)
	writeOK(w, http.StatusOK, "Record deleted successfully", redact(name, rec))
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	pq := marketplace.ProductQuery{
		Page:     intParam(params.Get("page"), 1),
		Limit:    intParam(params.Get("limit"), marketplace.DefaultPageSize),
		Category: params.Get("category"),
		Region:   params.Get("region"),
		Country:  params.Get("country"),
		Artisan:  params.Get("artisan"),
		Search:   params.Get("search"),
		SortBy:   params.Get("sortBy"),
	}
	if pq.Search == "" {
		pq.Search = params.Get("q")
	}
	if s := params.Get("sortOrder"); s != "" {
		pq.SortOrder = query.ParseOrder(s)
	}
	var err error
	if pq.MinPrice, err = floatParam(params.Get("minPrice")); err != nil {
		writeError(w, http.StatusBadRequest, "minPrice must be a number")
		return
	}
	if pq.MaxPrice, err = floatParam(params.Get("maxPrice")); err != nil {
		writeError(w, http.StatusBadRequest, "maxPrice must be a number")
		return
	}

	page, err := h.market.ListProducts(pq)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writePage(w, "Products retrieved successfully", page)
}

func (h *Handler) artisanProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.market.ProductsByArtisan(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Artisan products retrieved successfully", products)
}

func (h *Handler) lookupUser(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if strings.TrimSpace(email) == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	u, ok, err := h.market.FindUserByEmail(email)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	u.Password = ""
	writeOK(w, http.StatusOK, "User retrieved successfully", u)
}

func (h *Handler) userOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.market.UserOrders(r.PathValue("id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Orders retrieved successfully", orders)
}

func (h *Handler) analytics(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, "Analytics retrieved successfully", h.market.Analytics())
}

// redact drops secret fields from a record about to be returned. rec is
// always a private copy handed out by the store.
func redact(collection string, rec record.Record) record.Record {
	for _, f := range secretFields[collection] {
		delete(rec, f)
	}
	return rec
}

func intParam(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func floatParam(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

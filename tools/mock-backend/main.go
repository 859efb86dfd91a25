// Package main implements a mock storefront backend for local development.
// One process serves both the OAuth1-signed catalog API and the bearer-token
// visual-search API (under /vs) with generated data, so serve can run
// without real credentials.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const pageSize = 20

type product struct {
	ID         string            `json:"id"`
	SKU        string            `json:"sku"`
	Name       string            `json:"name"`
	Brand      string            `json:"brand"`
	ImageURL   string            `json:"image_url"`
	Price      map[string]string `json:"price"`
	Similarity float64           `json:"similarity,omitempty"`
}

type pagination struct {
	CurrentPage int  `json:"current_page"`
	LastPage    int  `json:"last_page"`
	Total       int  `json:"total"`
	HasNext     bool `json:"has_next"`
}

type filterEcho struct {
	Bindings map[string]string   `json:"bindings"`
	Active   map[string][]string `json:"active"`
}

// serverBindings are the parameter names this backend expects. The category
// dimension moves to category3 once a category is applied.
var serverBindings = map[string]string{
	"gender":   "gender",
	"category": "category3",
	"brand":    "manufacturer",
	"size":     "size",
	"color":    "color",
}

var brands = []string{"Acme", "Globex", "Initech", "Umbrella", "Hooli"}

type backend struct {
	logger    *slog.Logger
	publicURL string
	total     int
	tokenTTL  time.Duration

	mu     sync.Mutex
	tokens map[string]time.Time
	issued int
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	publicURL := flag.String("public-url", "http://localhost:8089", "URL clients reach this server at")
	total := flag.Int("products", 95, "products per category")
	tokenTTL := flag.Duration("token-ttl", time.Hour, "lifetime of issued bearer tokens")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	b := newBackend(logger, *publicURL, *total, *tokenTTL)

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock storefront backend", "addr", addr, "public_url", *publicURL)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, b.routes()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newBackend(logger *slog.Logger, publicURL string, total int, tokenTTL time.Duration) *backend {
	return &backend{
		logger:    logger,
		publicURL: strings.TrimRight(publicURL, "/"),
		total:     total,
		tokenTTL:  tokenTTL,
		tokens:    make(map[string]time.Time),
	}
}

func (b *backend) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /stores", b.requireOAuth(b.storesHandler))
	mux.HandleFunc("GET /stores/{id}/locations", b.requireOAuth(b.locationsHandler))
	mux.HandleFunc("GET /brands/images", b.requireOAuth(b.brandImagesHandler))
	mux.HandleFunc("GET /categories/{id}/products", b.requireOAuth(b.productsHandler))
	mux.HandleFunc("POST /vs/v1/token", b.tokenHandler)
	mux.HandleFunc("POST /vs/v1/search", b.requireBearer(b.searchHandler))
	return mux
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}

// requireOAuth checks an OAuth1 header is present. Signatures are not verified.
func (b *backend) requireOAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "OAuth ") || !strings.Contains(auth, "oauth_signature=") {
			b.logger.Warn("catalog request without OAuth1 header", "path", r.URL.Path)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "signature required"})
			return
		}
		next(w, r)
	}
}

func (b *backend) requireBearer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || !b.validToken(tok) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
			return
		}
		next(w, r)
	}
}

func (b *backend) validToken(tok string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.tokens[tok]
	return ok && time.Now().Before(exp)
}

func (b *backend) storesHandler(w http.ResponseWriter, _ *http.Request) {
	stores := []map[string]string{
		b.store("de", "DE", "Storefront Germany", "de_DE"),
		b.store("at", "AT", "Storefront Austria", "de_AT"),
		b.store("ch", "CH", "Storefront Switzerland", "de_CH"),
	}
	stores[2]["currency"] = "CHF"
	writeJSON(w, http.StatusOK, map[string]any{"stores": stores})
}

func (b *backend) store(id, country, name, locale string) map[string]string {
	return map[string]string{
		"id":                     id,
		"country":                country,
		"name":                   name,
		"locale":                 locale,
		"currency":               "EUR",
		"primary_base_url":       b.publicURL,
		"visual_search_base_url": b.publicURL + "/vs",
		"visual_search_token":    "vs-key-" + id,
	}
}

func (*backend) locationsHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id != "de" && id != "at" && id != "ch" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown store"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"locations": []map[string]any{
		{"id": id + "-1", "store_id": id, "name": "Flagship", "city": "Capital", "latitude": 52.52, "longitude": 13.40},
		{"id": id + "-2", "store_id": id, "name": "Outlet", "city": "Harbour", "latitude": 53.55, "longitude": 9.99},
	}})
}

func (*backend) brandImagesHandler(w http.ResponseWriter, _ *http.Request) {
	out := make([]map[string]string, 0, len(brands))
	for i, name := range brands {
		out = append(out, map[string]string{
			"brand_id":  strconv.Itoa(i + 1),
			"name":      name,
			"image_url": "https://img.example.com/brands/" + strings.ToLower(name) + ".png",
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"brands": out})
}

func (b *backend) productsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := 1
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		page = v
	}

	items := b.catalog(r.PathValue("id"), q.Get("manufacturer"))
	products, pg := paginate(items, page)

	writeJSON(w, http.StatusOK, map[string]any{
		"products":   products,
		"pagination": pg,
		"filters":    echoFilters(q.Get("category2"), q.Get("category3")),
	})
}

// echoFilters reports applied category ids under category3, including any
// the client sent under the default level.
func echoFilters(levels ...string) filterEcho {
	echo := filterEcho{Bindings: serverBindings, Active: map[string][]string{}}
	for _, raw := range levels {
		for id := range strings.SplitSeq(raw, "_") {
			if id != "" {
				echo.Active["category3"] = append(echo.Active["category3"], id)
			}
		}
	}
	return echo
}

func (b *backend) catalog(categoryID, brandFilter string) []product {
	allowed := map[string]bool{}
	for id := range strings.SplitSeq(brandFilter, "_") {
		if id != "" {
			allowed[id] = true
		}
	}

	out := make([]product, 0, b.total)
	for i := range b.total {
		brandID := strconv.Itoa(i%len(brands) + 1)
		if len(allowed) > 0 && !allowed[brandID] {
			continue
		}
		out = append(out, product{
			ID:       fmt.Sprintf("%s-%04d", categoryID, i+1),
			SKU:      fmt.Sprintf("SKU%06d", i+1),
			Name:     fmt.Sprintf("%s item %d", brands[i%len(brands)], i+1),
			Brand:    brands[i%len(brands)],
			ImageURL: fmt.Sprintf("https://img.example.com/p/%d.jpg", i+1),
			Price:    map[string]string{"value": fmt.Sprintf("%d.99", 10+i%90), "currency": "EUR"},
		})
	}
	return out
}

func paginate(items []product, page int) ([]product, pagination) {
	last := (len(items) + pageSize - 1) / pageSize
	if last == 0 {
		last = 1
	}
	start := min((page-1)*pageSize, len(items))
	end := min(start+pageSize, len(items))
	return items[start:end], pagination{
		CurrentPage: page,
		LastPage:    last,
		Total:       len(items),
		HasNext:     page < last,
	}
}

func (b *backend) tokenHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || !strings.HasPrefix(body.APIKey, "vs-key-") {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
		return
	}

	b.mu.Lock()
	b.issued++
	tok := fmt.Sprintf("mock-bearer-%d-%x", b.issued, os.Getpid())
	b.tokens[tok] = time.Now().Add(b.tokenTTL)
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": tok,
		"expires_in":   int(b.tokenTTL.Seconds()),
	})
	b.logger.Info("issued mock bearer token", "api_key", body.APIKey)
}

func (b *backend) searchHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Page         int               `json:"page"`
		Image        string            `json:"image"`
		Continuation string            `json:"continuation"`
		Filters      map[string]string `json:"filters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	switch {
	case body.Page <= 1 && body.Image == "":
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "image required on first page"})
		return
	case body.Page > 1 && body.Continuation != continuationFor(body.Page):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid continuation"})
		return
	}
	page := max(body.Page, 1)

	items := b.catalog("vs", body.Filters["manufacturer"])
	for i := range items {
		items[i].Similarity = 1 - float64(i)/float64(len(items)+1)
	}
	products, pg := paginate(items, page)

	resp := map[string]any{
		"products":   products,
		"pagination": pg,
		"filters":    echoFilters(body.Filters["category2"], body.Filters["category3"]),
	}
	if pg.HasNext {
		resp["continuation"] = continuationFor(page + 1)
	}
	writeJSON(w, http.StatusOK, resp)
}

func continuationFor(page int) string {
	return "vs-cursor-" + strconv.Itoa(page)
}

package catalog

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	domain "github.com/donaldgifford/storefront-query/pkg/types"
)

// BaseURLSource reports the primary base URL of the selected store. An
// empty string means the store names none.
type BaseURLSource interface {
	PrimaryBaseURL() string
}

// Router sends store-scoped calls (listings, locations, brand images) to
// the selected store's primary base URL and the store directory to the
// bootstrap client. The store-bound client is cached until the URL changes
// or Invalidate is called.
type Router struct {
	bootstrap *Client
	source    BaseURLSource
	logger    *slog.Logger

	mu      sync.Mutex
	client  *Client
	baseURL string
}

// RouterOption configures the Router.
type RouterOption func(*Router)

// WithRouterLogger sets the logger.
func WithRouterLogger(l *slog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = l
	}
}

// NewRouter creates a Router. bootstrap serves the store directory and
// every call made while the selected store names no primary base URL.
func NewRouter(bootstrap *Client, source BaseURLSource, opts ...RouterOption) *Router {
	r := &Router{
		bootstrap: bootstrap,
		source:    source,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// Client returns the client for the selected store.
func (r *Router) Client() *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := r.currentURL()
	if r.client != nil && r.baseURL == want {
		return r.client
	}

	c := r.bootstrap
	if want != r.bootstrap.BaseURL() {
		built, err := r.bootstrap.WithBaseURL(want)
		if err != nil {
			r.logger.Warn("store primary url unusable, using configured base url",
				"base_url", want,
				"error", err,
			)
		} else {
			c = built
			r.logger.Debug("catalog client rebound", "base_url", c.BaseURL())
		}
	}

	r.client = c
	r.baseURL = want
	return c
}

// Invalidate drops the cached client. The next call re-reads the source.
func (r *Router) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.client = nil
	r.baseURL = ""
}

// BaseURL reports the root store-scoped calls currently go to.
func (r *Router) BaseURL() string {
	return r.Client().BaseURL()
}

// StoreConfigs implements StoreDirectory on the bootstrap client.
func (r *Router) StoreConfigs(ctx context.Context) ([]domain.StoreConfig, error) {
	return r.bootstrap.StoreConfigs(ctx)
}

// Listing implements Lister on the selected store's client.
func (r *Router) Listing(ctx context.Context, req ListingRequest) (*ListingResponse, error) {
	return r.Client().Listing(ctx, req)
}

// StoreLocations lists a store's locations through the selected store's client.
func (r *Router) StoreLocations(ctx context.Context, storeID string) ([]domain.StoreLocation, error) {
	return r.Client().StoreLocations(ctx, storeID)
}

// BrandImages fetches brand artwork through the selected store's client.
func (r *Router) BrandImages(ctx context.Context) ([]domain.BrandImage, error) {
	return r.Client().BrandImages(ctx)
}

func (r *Router) currentURL() string {
	if r.source == nil {
		return r.bootstrap.BaseURL()
	}
	u := strings.TrimRight(strings.TrimSpace(r.source.PrimaryBaseURL()), "/")
	if u == "" {
		return r.bootstrap.BaseURL()
	}
	return u
}

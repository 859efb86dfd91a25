// Package catalog is the client for the primary storefront backend. Every
// request is signed with OAuth 1.0a and paced by a RateLimiter.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/donaldgifford/storefront-query/internal/filter"
	"github.com/donaldgifford/storefront-query/internal/metrics"
	"github.com/donaldgifford/storefront-query/internal/oauth1"
	"github.com/donaldgifford/storefront-query/internal/pipeline"
	domain "github.com/donaldgifford/storefront-query/pkg/types"
)

const (
	backendName    = "catalog"
	defaultTimeout = 30 * time.Second
)

var (
	// ErrNotFound is returned when the backend answers 404.
	ErrNotFound = errors.New("catalog resource not found")
	// ErrCategoryRequired is returned by Listing when no category id is set.
	ErrCategoryRequired = errors.New("category id is required")
)

// Lister fetches one category listing page.
type Lister interface {
	Listing(ctx context.Context, req ListingRequest) (*ListingResponse, error)
}

// StoreDirectory lists the store configurations the backend knows about.
type StoreDirectory interface {
	StoreConfigs(ctx context.Context) ([]domain.StoreConfig, error)
}

// ListingRequest selects one page of a category listing.
type ListingRequest struct {
	CategoryID string
	Page       int
	Params     filter.Params
}

// ListingResponse is one parsed listing page plus the server's filter echo.
type ListingResponse struct {
	Products     []domain.Product
	Pagination   domain.Pagination
	Bindings     filter.Bindings
	ActiveLevels filter.ActiveLevels
}

// Client talks to the primary backend.
type Client struct {
	baseURL     string
	creds       oauth1.Credentials
	signer      *oauth1.Signer
	transport   http.RoundTripper
	timeout     time.Duration
	rateLimiter *RateLimiter
	logger      *slog.Logger

	http     *http.Client
	pipeline *pipeline.Pipeline
}

// Option configures the Client.
type Option func(*Client)

// WithTransport sets the transport the signing pipeline sends through.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = rt
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithSigner overrides the OAuth signer, typically to pin time and nonce.
func WithSigner(s *oauth1.Signer) Option {
	return func(c *Client) {
		c.signer = s
	}
}

// WithRateLimiter injects a rate limiter. When set, every call goes
// through Wait() first.
func WithRateLimiter(r *RateLimiter) Option {
	return func(c *Client) {
		c.rateLimiter = r
	}
}

// WithLogger sets the logger used by the request pipeline.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a primary backend client rooted at baseURL.
func NewClient(baseURL string, creds oauth1.Credentials, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("catalog base url %q is not absolute", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.signer == nil {
		c.signer = oauth1.NewSigner()
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}

	c.pipeline = pipeline.New(c.transport,
		pipeline.OAuth1(c.signer, c.creds),
		pipeline.Logging(c.logger, backendName),
		pipeline.Metrics(backendName),
	)
	c.http = c.pipeline.Client(c.timeout)

	return c, nil
}

// BaseURL returns the backend root the client was built for.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WithBaseURL returns a copy of c rooted at baseURL. The copy shares the
// signing pipeline and the rate limiter, so quota is counted once across
// every store.
func (c *Client) WithBaseURL(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("catalog base url %q is not absolute", baseURL)
	}

	out := *c
	out.baseURL = strings.TrimRight(baseURL, "/")
	return &out, nil
}

type storesResponse struct {
	Stores []domain.StoreConfig `json:"stores"`
}

type locationsResponse struct {
	Locations []domain.StoreLocation `json:"locations"`
}

type brandImagesResponse struct {
	Brands []domain.BrandImage `json:"brands"`
}

type listingAPIResponse struct {
	Products   []domain.Product  `json:"products"`
	Pagination domain.Pagination `json:"pagination"`
	Filters    domain.FilterEcho `json:"filters"`
}

// StoreConfigs returns every store configuration.
func (c *Client) StoreConfigs(ctx context.Context) ([]domain.StoreConfig, error) {
	var resp storesResponse
	if err := c.get(ctx, "/stores", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching store configs: %w", err)
	}
	return resp.Stores, nil
}

// StoreLocations returns the physical locations of one store.
func (c *Client) StoreLocations(ctx context.Context, storeID string) ([]domain.StoreLocation, error) {
	var resp locationsResponse
	path := "/stores/" + url.PathEscape(storeID) + "/locations"
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching locations for store %s: %w", storeID, err)
	}
	return resp.Locations, nil
}

// BrandImages returns the brand artwork table.
func (c *Client) BrandImages(ctx context.Context) ([]domain.BrandImage, error) {
	var resp brandImagesResponse
	if err := c.get(ctx, "/brands/images", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching brand images: %w", err)
	}
	return resp.Brands, nil
}

// Listing fetches one page of a category listing with the resolved filter
// params applied. Page numbers start at 1.
func (c *Client) Listing(ctx context.Context, req ListingRequest) (*ListingResponse, error) {
	if req.CategoryID == "" {
		return nil, ErrCategoryRequired
	}

	page := req.Page
	if page < 1 {
		page = 1
	}

	q := url.Values{}
	req.Params.Apply(q)
	q.Set("page", strconv.Itoa(page))

	var resp listingAPIResponse
	path := "/categories/" + url.PathEscape(req.CategoryID) + "/products"
	if err := c.get(ctx, path, q, &resp); err != nil {
		return nil, fmt.Errorf("fetching category %s page %d: %w", req.CategoryID, page, err)
	}

	return &ListingResponse{
		Products:     resp.Products,
		Pagination:   resp.Pagination,
		Bindings:     filter.BindingsFromServer(resp.Filters.Bindings),
		ActiveLevels: filter.ActiveLevels(resp.Filters.Active),
	}, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			if errors.Is(err, ErrDailyLimitReached) {
				metrics.CatalogDailyLimitHits.Inc()
			}
			return fmt.Errorf("rate limit: %w", err)
		}
		metrics.CatalogDailyUsage.Set(float64(c.rateLimiter.DailyCount()))
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("catalog API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

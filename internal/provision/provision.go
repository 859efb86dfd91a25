// Package provision hands out a visual-search client bound to the base URL
// of the currently selected store, rebuilding it only when that URL changes.
package provision

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/donaldgifford/storefront-query/internal/metrics"
	"github.com/donaldgifford/storefront-query/internal/pipeline"
	"github.com/donaldgifford/storefront-query/internal/visualsearch"
)

// DefaultBaseURL is used when no store advertises a visual-search endpoint.
const DefaultBaseURL = "https://visual-search.storefront.example.com"

// BaseURLSource reports the visual-search base URL of the active store.
// An empty string means none is configured.
type BaseURLSource interface {
	VisualSearchBaseURL() string
}

// BaseURLFunc adapts a function to BaseURLSource.
type BaseURLFunc func() string

// VisualSearchBaseURL implements BaseURLSource.
func (f BaseURLFunc) VisualSearchBaseURL() string {
	return f()
}

// Provisioner caches one visual-search client per base URL.
type Provisioner struct {
	source     BaseURLSource
	tokens     pipeline.TokenSource
	defaultURL string
	clientOpts []visualsearch.Option
	logger     *slog.Logger

	// fallback is the client for defaultURL, built once in New.
	fallback *visualsearch.Client

	mu      sync.Mutex
	client  *visualsearch.Client
	baseURL string
}

// Option configures the Provisioner.
type Option func(*Provisioner)

// WithDefaultBaseURL overrides DefaultBaseURL.
func WithDefaultBaseURL(u string) Option {
	return func(p *Provisioner) {
		p.defaultURL = u
	}
}

// WithClientOptions passes options to every client built.
func WithClientOptions(opts ...visualsearch.Option) Option {
	return func(p *Provisioner) {
		p.clientOpts = append(p.clientOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provisioner) {
		p.logger = l
	}
}

// New creates a Provisioner. The client for the default base URL is built
// up front with the client options, so Client never fails.
func New(source BaseURLSource, tokens pipeline.TokenSource, opts ...Option) (*Provisioner, error) {
	p := &Provisioner{
		source:     source,
		tokens:     tokens,
		defaultURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}

	fallback, err := visualsearch.NewClient(p.defaultURL, tokens, p.clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("invalid default visual search url: %w", err)
	}
	p.fallback = fallback
	return p, nil
}

// Client returns the client for the current base URL. The cached client is
// reused while the URL is unchanged; otherwise a new one is built. A URL
// that cannot be used falls back to the default.
func (p *Provisioner) Client() *visualsearch.Client {
	p.mu.Lock()
	defer p.mu.Unlock()

	want := p.currentURL()
	if p.client != nil && p.baseURL == want {
		return p.client
	}

	c := p.fallback
	if want != p.defaultURL {
		built, err := visualsearch.NewClient(want, p.tokens, p.clientOpts...)
		if err != nil {
			p.logger.Warn("visual search url unusable, using default",
				"base_url", want,
				"error", err,
			)
			want = p.defaultURL
		} else {
			c = built
		}
	}
	if p.client == c {
		p.baseURL = want
		return c
	}

	p.logger.Debug("visual search client built", "base_url", want)
	metrics.ClientRebuildsTotal.Inc()

	p.client = c
	p.baseURL = want
	return c
}

// Invalidate drops the cached client. The next Client call rebuilds.
func (p *Provisioner) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.client = nil
	p.baseURL = ""
}

// BaseURL reports the URL of the cached client, or "" when none is cached.
func (p *Provisioner) BaseURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.baseURL
}

// currentURL must be called with p.mu held so a switch cannot interleave
// between reading the URL and caching its client.
func (p *Provisioner) currentURL() string {
	if p.source == nil {
		return p.defaultURL
	}
	u := strings.TrimSpace(p.source.VisualSearchBaseURL())
	if u == "" {
		return p.defaultURL
	}
	return u
}

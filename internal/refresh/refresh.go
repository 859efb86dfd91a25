// Package refresh keeps the visual-search bearer token fresh. Refresher
// exchanges the store's API key for a new token on demand; Scheduler runs
// it periodically.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/donaldgifford/storefront-query/internal/metrics"
	"github.com/donaldgifford/storefront-query/internal/provision"
	"github.com/donaldgifford/storefront-query/internal/token"
)

// ErrNoAPIKey is returned when the active store has no key to exchange.
var ErrNoAPIKey = errors.New("no visual search api key for the selected store")

// minInterval suppresses back-to-back refreshes when several callers see
// the same 401 at once.
const minInterval = 5 * time.Second

// TokenEndpoint exchanges an API key for a bearer token and its lifetime.
type TokenEndpoint interface {
	RequestToken(ctx context.Context, apiKey string) (string, time.Duration, error)
}

// EndpointFunc yields the token endpoint of the active store.
type EndpointFunc func() TokenEndpoint

// ProvisionedEndpoint resolves the endpoint through p, so refreshes follow
// store switches.
func ProvisionedEndpoint(p *provision.Provisioner) EndpointFunc {
	return func() TokenEndpoint {
		return p.Client()
	}
}

// APIKeySource yields the API key of the active store.
type APIKeySource interface {
	VisualSearchToken() string
}

// Refresher refreshes a token.Store. Refreshes are serialized.
type Refresher struct {
	tokens   *token.Store
	endpoint EndpointFunc
	keys     APIKeySource
	logger   *slog.Logger

	mu          sync.Mutex
	lastRefresh time.Time
	nowFunc     func() time.Time
}

// Option configures the Refresher.
type Option func(*Refresher)

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) Option {
	return func(r *Refresher) {
		r.nowFunc = f
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Refresher) {
		r.logger = l
	}
}

// NewRefresher creates a Refresher.
func NewRefresher(tokens *token.Store, endpoint EndpointFunc, keys APIKeySource, opts ...Option) *Refresher {
	r := &Refresher{
		tokens:   tokens,
		endpoint: endpoint,
		keys:     keys,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// RefreshIfNeeded refreshes when the token is missing, expired or within
// token.RefreshBuffer of expiry. It reports whether a refresh ran.
func (r *Refresher) RefreshIfNeeded(ctx context.Context) (bool, error) {
	if !r.tokens.IsExpiredOrExpiringSoon() {
		return false, nil
	}
	if err := r.Refresh(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// Refresh fetches a new token unconditionally, unless another refresh
// finished less than a few seconds ago.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowFunc()
	if !r.lastRefresh.IsZero() && now.Sub(r.lastRefresh) < minInterval &&
		r.tokens.State() == token.Valid {
		return nil
	}

	return r.refreshLocked(ctx)
}

func (r *Refresher) refreshLocked(ctx context.Context) error {
	key := r.keys.VisualSearchToken()
	if key == "" {
		metrics.TokenRefreshesTotal.WithLabelValues("skipped").Inc()
		return ErrNoAPIKey
	}

	tok, ttl, err := r.endpoint().RequestToken(ctx, key)
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues("failure").Inc()
		r.logger.Warn("token refresh failed", "error", err)
		return fmt.Errorf("refreshing token: %w", err)
	}

	r.tokens.Save(tok, ttl)
	r.lastRefresh = r.nowFunc()
	metrics.TokenRefreshesTotal.WithLabelValues("success").Inc()
	r.logger.Info("token refreshed", "expires_at", r.tokens.Expiry())
	return nil
}

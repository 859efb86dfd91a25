package client

import (
	"context"
	"time"

	"github.com/donaldgifford/storefront-query/internal/api/handlers"
	"github.com/donaldgifford/storefront-query/internal/filter"
)

// Session is the active session as reported by the API.
type Session = handlers.SessionBody

// TokenRefresh is the result of a forced token refresh.
type TokenRefresh struct {
	Status     string    `json:"status"`
	TokenState string    `json:"token_state"`
	Expiry     time.Time `json:"expiry"`
}

// Quota is the catalog call budget.
type Quota struct {
	DailyLimit int64     `json:"daily_limit"`
	DailyUsed  int64     `json:"daily_used"`
	Remaining  int64     `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
}

// GetSession returns the selected store, token state and filters.
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	var s Session
	if err := c.get(ctx, "/api/v1/session", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SelectStore makes storeID the active store.
func (c *Client) SelectStore(ctx context.Context, storeID string) (*Session, error) {
	var s Session
	body := map[string]string{"store_id": storeID}
	if err := c.post(ctx, "/api/v1/session/store", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SetFilters replaces the persisted filter selection.
func (c *Client) SetFilters(ctx context.Context, sel filter.Selection) (*Session, error) {
	var s Session
	body := map[string]filter.Selection{"filters": sel}
	if err := c.put(ctx, "/api/v1/session/filters", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// RefreshToken forces a visual-search token refresh.
func (c *Client) RefreshToken(ctx context.Context) (*TokenRefresh, error) {
	var resp TokenRefresh
	if err := c.post(ctx, "/api/v1/token/refresh", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Quota returns the catalog call budget.
func (c *Client) Quota(ctx context.Context) (*Quota, error) {
	var q Quota
	if err := c.get(ctx, "/api/v1/quota", &q); err != nil {
		return nil, err
	}
	return &q, nil
}

package handlers_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/donaldgifford/storefront-query/internal/filter"
	"github.com/donaldgifford/storefront-query/internal/session"
	"github.com/donaldgifford/storefront-query/internal/token"
	domain "github.com/donaldgifford/storefront-query/pkg/types"
)

// fakeSession implements handlers.StoreSession.
type fakeSession struct {
	mu        sync.Mutex
	stores    []domain.StoreConfig
	storesErr error
	current   *domain.StoreConfig
	selection filter.Selection
	setErr    error
}

func (f *fakeSession) Stores(context.Context) ([]domain.StoreConfig, error) {
	return f.stores, f.storesErr
}

func (f *fakeSession) Select(_ context.Context, id string) (*domain.StoreConfig, error) {
	if f.storesErr != nil {
		return nil, f.storesErr
	}
	for i := range f.stores {
		if f.stores[i].ID == id {
			f.mu.Lock()
			cfg := f.stores[i]
			f.current = &cfg
			f.mu.Unlock()
			return &cfg, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", session.ErrUnknownStore, id)
}

func (f *fakeSession) Current() (*domain.StoreConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return nil, session.ErrNoStoreSelected
	}
	cfg := *f.current
	return &cfg, nil
}

func (f *fakeSession) Selection() filter.Selection {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selection
}

func (f *fakeSession) SetSelection(_ context.Context, sel filter.Selection) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.mu.Lock()
	f.selection = sel
	f.mu.Unlock()
	return nil
}

// fakeRefresher implements handlers.TokenRefresher.
type fakeRefresher struct {
	ifNeededErr  error
	refreshErr   error
	ifNeededHits atomic.Int32
	refreshHits  atomic.Int32
}

func (f *fakeRefresher) RefreshIfNeeded(context.Context) (bool, error) {
	f.ifNeededHits.Add(1)
	return f.ifNeededErr == nil, f.ifNeededErr
}

func (f *fakeRefresher) Refresh(context.Context) error {
	f.refreshHits.Add(1)
	return f.refreshErr
}

// fakeTokens implements handlers.TokenStatus.
type fakeTokens struct {
	state  token.State
	expiry time.Time
}

func (f fakeTokens) State() token.State { return f.state }
func (f fakeTokens) Expiry() time.Time  { return f.expiry }

type staticURL string

func (s staticURL) BaseURL() string { return string(s) }

func testStores() []domain.StoreConfig {
	return []domain.StoreConfig{
		{
			ID:                  "de",
			Country:             "DE",
			Name:                "Storefront Germany",
			VisualSearchBaseURL: "https://vs.de.example.com",
			VisualSearchToken:   "secret-key",
			Locale:              "de_DE",
			Currency:            "EUR",
		},
		{ID: "at", Country: "AT", Name: "Storefront Austria", Locale: "de_AT", Currency: "EUR"},
	}
}

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/donaldgifford/storefront-query/internal/store"
	"github.com/donaldgifford/storefront-query/internal/token"
)

// Keys written to the key-value store.
const (
	KeyStoreID             = "session/store_id"
	KeyCountry             = "session/country"
	KeyVisualSearchBaseURL = "session/visual_search_base_url"
	KeyPrimaryBaseURL      = "session/primary_base_url"
	KeyBearerToken         = "token/bearer" //nolint:gosec // key name, not a credential
	KeyActiveFilters       = "filters/active"
)

const persistTimeout = 5 * time.Second

// TokenPersister writes token snapshots under KeyBearerToken. It implements
// token.Persister.
type TokenPersister struct {
	kv store.Store
}

// NewTokenPersister creates a TokenPersister over kv.
func NewTokenPersister(kv store.Store) *TokenPersister {
	return &TokenPersister{kv: kv}
}

// PersistToken implements token.Persister. A nil snapshot deletes the key.
func (p *TokenPersister) PersistToken(snap *token.Snapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if snap == nil {
		return p.kv.Delete(ctx, KeyBearerToken)
	}
	return store.PutJSON(ctx, p.kv, KeyBearerToken, snap)
}

// LoadToken reads the persisted snapshot. A missing key yields (nil, nil).
func (p *TokenPersister) LoadToken(ctx context.Context) (*token.Snapshot, error) {
	var snap token.Snapshot
	err := store.GetJSON(ctx, p.kv, KeyBearerToken, &snap)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading bearer token: %w", err)
	}
	return &snap, nil
}

// Package session owns the selected store. Selecting a different store
// persists the choice, clears the bearer token and notifies listeners so
// store-bound clients are rebuilt.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/donaldgifford/storefront-query/internal/catalog"
	"github.com/donaldgifford/storefront-query/internal/filter"
	"github.com/donaldgifford/storefront-query/internal/store"
	"github.com/donaldgifford/storefront-query/internal/token"
	domain "github.com/donaldgifford/storefront-query/pkg/types"
)

var (
	// ErrNoStoreSelected is returned when an operation needs a store and none
	// has been selected.
	ErrNoStoreSelected = errors.New("no store selected")
	// ErrUnknownStore is returned when selecting an id the backend does not list.
	ErrUnknownStore = errors.New("unknown store")
)

// SwitchFunc is called after the active store changed.
type SwitchFunc func(cfg domain.StoreConfig)

// Manager holds the store selection context.
type Manager struct {
	kv        store.Store
	directory catalog.StoreDirectory
	tokens    *token.Store
	logger    *slog.Logger

	mu        sync.RWMutex
	current   *domain.StoreConfig
	selection filter.Selection
	listeners []SwitchFunc
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a Manager with no store selected. Call Restore to load
// the persisted selection.
func NewManager(kv store.Store, directory catalog.StoreDirectory, tokens *token.Store, opts ...Option) *Manager {
	m := &Manager{
		kv:        kv,
		directory: directory,
		tokens:    tokens,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	return m
}

// OnSwitch registers fn to run after every store change.
func (m *Manager) OnSwitch(fn SwitchFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Stores lists the store configurations offered by the backend.
func (m *Manager) Stores(ctx context.Context) ([]domain.StoreConfig, error) {
	return m.directory.StoreConfigs(ctx)
}

// Select makes storeID the active store. Re-selecting the active store
// refreshes its configuration and keeps the token; switching to another
// store clears the token and the filter selection.
func (m *Manager) Select(ctx context.Context, storeID string) (*domain.StoreConfig, error) {
	cfg, err := m.lookup(ctx, storeID)
	if err != nil {
		return nil, err
	}

	if err := m.persistStore(ctx, cfg); err != nil {
		return nil, err
	}

	m.mu.Lock()
	switched := m.current == nil || m.current.ID != cfg.ID
	m.current = &cfg
	listeners := append([]SwitchFunc(nil), m.listeners...)
	if switched {
		m.selection = filter.Selection{}
	}
	m.mu.Unlock()

	if !switched {
		m.logger.Debug("store configuration refreshed", "store_id", cfg.ID)
		out := cfg
		return &out, nil
	}

	m.tokens.Clear()
	if err := m.kv.Delete(ctx, KeyActiveFilters); err != nil {
		m.logger.Warn("clearing persisted filters", "error", err)
	}
	for _, fn := range listeners {
		fn(cfg)
	}

	m.logger.Info("store selected", "store_id", cfg.ID, "country", cfg.Country)
	out := cfg
	return &out, nil
}

// Current returns the active store configuration.
func (m *Manager) Current() (*domain.StoreConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil, ErrNoStoreSelected
	}
	out := *m.current
	return &out, nil
}

// VisualSearchBaseURL returns the visual-search URL of the active store, or
// "" when no store is selected or it has none.
func (m *Manager) VisualSearchBaseURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return ""
	}
	return m.current.VisualSearchBaseURL
}

// PrimaryBaseURL returns the primary backend URL of the active store, or ""
// when no store is selected or it names none.
func (m *Manager) PrimaryBaseURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return ""
	}
	return m.current.PrimaryBaseURL
}

// VisualSearchToken returns the API key of the active store.
func (m *Manager) VisualSearchToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return ""
	}
	return m.current.VisualSearchToken
}

// Selection returns the persisted filter selection of the active store.
func (m *Manager) Selection() filter.Selection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selection
}

// SetSelection replaces and persists the filter selection.
func (m *Manager) SetSelection(ctx context.Context, sel filter.Selection) error {
	if err := store.PutJSON(ctx, m.kv, KeyActiveFilters, sel); err != nil {
		return fmt.Errorf("persisting filter selection: %w", err)
	}
	m.mu.Lock()
	m.selection = sel
	m.mu.Unlock()
	return nil
}

// Restore loads the persisted store, token and filter selection. The store
// configuration is re-fetched from the backend; when that fails the
// persisted fields are used as-is. Nothing persisted is not an error.
func (m *Manager) Restore(ctx context.Context) error {
	id, err := m.getString(ctx, KeyStoreID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restoring store id: %w", err)
	}

	cfg, err := m.lookup(ctx, id)
	if err != nil {
		m.logger.Warn("store lookup failed, using persisted values", "store_id", id, "error", err)
		cfg = domain.StoreConfig{ID: id}
		if c, err := m.getString(ctx, KeyCountry); err == nil {
			cfg.Country = c
		}
		if u, err := m.getString(ctx, KeyVisualSearchBaseURL); err == nil {
			cfg.VisualSearchBaseURL = u
		}
		if u, err := m.getString(ctx, KeyPrimaryBaseURL); err == nil {
			cfg.PrimaryBaseURL = u
		}
	}

	snap, err := NewTokenPersister(m.kv).LoadToken(ctx)
	if err != nil {
		m.logger.Warn("ignoring persisted token", "error", err)
	} else if snap != nil {
		m.tokens.Restore(*snap)
	}

	var sel filter.Selection
	if err := store.GetJSON(ctx, m.kv, KeyActiveFilters, &sel); err != nil && !errors.Is(err, store.ErrNotFound) {
		m.logger.Warn("ignoring persisted filters", "error", err)
		sel = filter.Selection{}
	}

	m.mu.Lock()
	m.current = &cfg
	m.selection = sel
	listeners := append([]SwitchFunc(nil), m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(cfg)
	}

	m.logger.Info("session restored", "store_id", cfg.ID, "token_state", m.tokens.State().String())
	return nil
}

func (m *Manager) lookup(ctx context.Context, storeID string) (domain.StoreConfig, error) {
	stores, err := m.directory.StoreConfigs(ctx)
	if err != nil {
		return domain.StoreConfig{}, fmt.Errorf("listing stores: %w", err)
	}
	for _, s := range stores {
		if s.ID == storeID {
			return s, nil
		}
	}
	return domain.StoreConfig{}, fmt.Errorf("%s: %w", storeID, ErrUnknownStore)
}

func (m *Manager) persistStore(ctx context.Context, cfg domain.StoreConfig) error {
	writes := []struct{ key, value string }{
		{KeyStoreID, cfg.ID},
		{KeyCountry, cfg.Country},
		{KeyVisualSearchBaseURL, cfg.VisualSearchBaseURL},
		{KeyPrimaryBaseURL, cfg.PrimaryBaseURL},
	}
	for _, w := range writes {
		if err := store.PutJSON(ctx, m.kv, w.key, w.value); err != nil {
			return fmt.Errorf("persisting %s: %w", w.key, err)
		}
	}
	return nil
}

func (m *Manager) getString(ctx context.Context, key string) (string, error) {
	var v string
	err := store.GetJSON(ctx, m.kv, key, &v)
	return v, err
}

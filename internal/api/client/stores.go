package client

import (
	"context"
	"net/url"

	domain "github.com/donaldgifford/storefront-query/pkg/types"
)

// ListStores returns the stores the primary backend publishes.
func (c *Client) ListStores(ctx context.Context) ([]domain.StoreConfig, error) {
	var resp struct {
		Stores []domain.StoreConfig `json:"stores"`
	}
	if err := c.get(ctx, "/api/v1/stores", &resp); err != nil {
		return nil, err
	}
	return resp.Stores, nil
}

// StoreLocations returns the physical shops of one store.
func (c *Client) StoreLocations(ctx context.Context, storeID string) ([]domain.StoreLocation, error) {
	var resp struct {
		Locations []domain.StoreLocation `json:"locations"`
	}
	if err := c.get(ctx, "/api/v1/stores/"+url.PathEscape(storeID)+"/locations", &resp); err != nil {
		return nil, err
	}
	return resp.Locations, nil
}

// BrandImages returns the brand artwork table.
func (c *Client) BrandImages(ctx context.Context) ([]domain.BrandImage, error) {
	var resp struct {
		Brands []domain.BrandImage `json:"brands"`
	}
	if err := c.get(ctx, "/api/v1/brands/images", &resp); err != nil {
		return nil, err
	}
	return resp.Brands, nil
}

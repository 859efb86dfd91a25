// Package domain defines the core types shared across the storefront query layer.
package domain

import (
	"strconv"
	"strings"
)

// StoreConfig describes one storefront as returned by the primary backend.
// Values are replaced wholesale on re-fetch and never mutated in place.
type StoreConfig struct {
	ID                  string `json:"id"`
	Country             string `json:"country"`
	Name                string `json:"name"`
	PrimaryBaseURL      string `json:"primary_base_url,omitempty"`
	VisualSearchBaseURL string `json:"visual_search_base_url,omitempty"`
	VisualSearchToken   string `json:"visual_search_token,omitempty"`
	Locale              string `json:"locale"`
	Currency            string `json:"currency"`
}

// HasVisualSearch reports whether the store advertises a visual-search endpoint.
func (s *StoreConfig) HasVisualSearch() bool {
	return s.VisualSearchBaseURL != ""
}

// StoreLocation is a physical shop belonging to a store.
type StoreLocation struct {
	ID        string  `json:"id"`
	StoreID   string  `json:"store_id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Phone     string  `json:"phone,omitempty"`
}

// BrandImage maps a brand to its artwork.
type BrandImage struct {
	BrandID  string `json:"brand_id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

// Price is a decimal amount as sent by the backends.
type Price struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Float parses the price value. Unparseable values return 0.
func (p Price) Float() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(p.Value), 64)
	if err != nil {
		return 0
	}
	return v
}

// Product is a single catalog item from either listing mode.
type Product struct {
	ID         string  `json:"id"`
	SKU        string  `json:"sku,omitempty"`
	Name       string  `json:"name"`
	Brand      string  `json:"brand,omitempty"`
	ImageURL   string  `json:"image_url,omitempty"`
	ProductURL string  `json:"product_url,omitempty"`
	Price      Price   `json:"price"`
	SalePrice  *Price  `json:"sale_price,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
}

// OnSale reports whether the product carries a sale price lower than its list price.
func (p *Product) OnSale() bool {
	return p.SalePrice != nil && p.SalePrice.Float() > 0 && p.SalePrice.Float() < p.Price.Float()
}

// Pagination is the page block both backends return with a listing.
type Pagination struct {
	CurrentPage int  `json:"current_page"`
	LastPage    int  `json:"last_page"`
	Total       int  `json:"total"`
	HasNext     bool `json:"has_next"`
}

// FilterEcho is the filter block both backends return with a listing:
// the parameter name bound to each dimension and, per parameter, the ids
// the server applied.
type FilterEcho struct {
	Bindings map[string]string   `json:"bindings,omitempty"`
	Active   map[string][]string `json:"active,omitempty"`
}

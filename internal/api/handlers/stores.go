package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/storefront-query/internal/filter"
	domain "github.com/donaldgifford/storefront-query/pkg/types"
)

// StoreSession is the store-selection surface the API needs.
type StoreSession interface {
	Stores(ctx context.Context) ([]domain.StoreConfig, error)
	Select(ctx context.Context, storeID string) (*domain.StoreConfig, error)
	Current() (*domain.StoreConfig, error)
	Selection() filter.Selection
	SetSelection(ctx context.Context, sel filter.Selection) error
}

// StoreCatalog serves per-store reference data from the primary backend.
type StoreCatalog interface {
	StoreLocations(ctx context.Context, storeID string) ([]domain.StoreLocation, error)
	BrandImages(ctx context.Context) ([]domain.BrandImage, error)
}

// StoresHandler serves store configuration and reference data.
type StoresHandler struct {
	session StoreSession
	catalog StoreCatalog
}

// NewStoresHandler creates a new StoresHandler.
func NewStoresHandler(s StoreSession, c StoreCatalog) *StoresHandler {
	return &StoresHandler{session: s, catalog: c}
}

// ListStoresOutput is the response for listing stores.
type ListStoresOutput struct {
	Body struct {
		Stores []domain.StoreConfig `json:"stores"`
	}
}

// LocationsInput selects the store whose locations are listed.
type LocationsInput struct {
	ID string `path:"id" doc:"Store id" example:"de"`
}

// LocationsOutput is the response for store locations.
type LocationsOutput struct {
	Body struct {
		Locations []domain.StoreLocation `json:"locations"`
	}
}

// BrandImagesOutput is the response for brand artwork.
type BrandImagesOutput struct {
	Body struct {
		Brands []domain.BrandImage `json:"brands"`
	}
}

// ListStores returns every store the primary backend knows.
func (h *StoresHandler) ListStores(ctx context.Context, _ *struct{}) (*ListStoresOutput, error) {
	stores, err := h.session.Stores(ctx)
	if err != nil {
		return nil, toHTTPError("listing stores", err)
	}

	resp := &ListStoresOutput{}
	resp.Body.Stores = make([]domain.StoreConfig, 0, len(stores))
	for i := range stores {
		resp.Body.Stores = append(resp.Body.Stores, redact(stores[i]))
	}
	return resp, nil
}

// ListLocations returns the physical shops of one store.
func (h *StoresHandler) ListLocations(ctx context.Context, input *LocationsInput) (*LocationsOutput, error) {
	locs, err := h.catalog.StoreLocations(ctx, input.ID)
	if err != nil {
		return nil, toHTTPError("listing store locations", err)
	}

	resp := &LocationsOutput{}
	resp.Body.Locations = locs
	if resp.Body.Locations == nil {
		resp.Body.Locations = []domain.StoreLocation{}
	}
	return resp, nil
}

// ListBrandImages returns the brand artwork table.
func (h *StoresHandler) ListBrandImages(ctx context.Context, _ *struct{}) (*BrandImagesOutput, error) {
	brands, err := h.catalog.BrandImages(ctx)
	if err != nil {
		return nil, toHTTPError("listing brand images", err)
	}

	resp := &BrandImagesOutput{}
	resp.Body.Brands = brands
	if resp.Body.Brands == nil {
		resp.Body.Brands = []domain.BrandImage{}
	}
	return resp, nil
}

// redact drops the visual-search API key before a config leaves the process.
func redact(cfg domain.StoreConfig) domain.StoreConfig {
	cfg.VisualSearchToken = ""
	return cfg
}

// RegisterStoreRoutes registers store endpoints with the Huma API.
func RegisterStoreRoutes(api huma.API, h *StoresHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-stores",
		Method:      http.MethodGet,
		Path:        "/api/v1/stores",
		Summary:     "List stores",
		Description: "Returns the store configurations published by the primary backend.",
		Tags:        []string{"stores"},
		Errors:      []int{http.StatusBadGateway},
	}, h.ListStores)

	huma.Register(api, huma.Operation{
		OperationID: "list-store-locations",
		Method:      http.MethodGet,
		Path:        "/api/v1/stores/{id}/locations",
		Summary:     "List store locations",
		Tags:        []string{"stores"},
		Errors:      []int{http.StatusNotFound, http.StatusBadGateway},
	}, h.ListLocations)

	huma.Register(api, huma.Operation{
		OperationID: "list-brand-images",
		Method:      http.MethodGet,
		Path:        "/api/v1/brands/images",
		Summary:     "List brand images",
		Tags:        []string{"stores"},
		Errors:      []int{http.StatusBadGateway},
	}, h.ListBrandImages)
}

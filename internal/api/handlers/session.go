package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/storefront-query/internal/filter"
	"github.com/donaldgifford/storefront-query/internal/token"
	domain "github.com/donaldgifford/storefront-query/pkg/types"
)

// TokenStatus reports the visual-search bearer token lifecycle.
type TokenStatus interface {
	State() token.State
	Expiry() time.Time
}

// BaseURLReporter reports the base URL the visual-search client is bound to.
type BaseURLReporter interface {
	BaseURL() string
}

// SessionHandler serves the store selection context.
type SessionHandler struct {
	session StoreSession
	tokens  TokenStatus
	vs      BaseURLReporter
}

// NewSessionHandler creates a new SessionHandler. vs may be nil.
func NewSessionHandler(s StoreSession, tokens TokenStatus, vs BaseURLReporter) *SessionHandler {
	return &SessionHandler{session: s, tokens: tokens, vs: vs}
}

// SessionBody describes the active session.
type SessionBody struct {
	Store               *domain.StoreConfig `json:"store"                            doc:"Selected store, null when none is selected"`
	TokenState          string              `json:"token_state"                      enum:"no_token,valid,expiring_soon,expired"`
	TokenExpiry         *time.Time          `json:"token_expiry,omitempty"`
	VisualSearchBaseURL string              `json:"visual_search_base_url,omitempty" doc:"Base URL the visual-search client is bound to"`
	Filters             filter.Selection    `json:"filters"`
}

// SessionOutput is the response for session endpoints.
type SessionOutput struct {
	Body SessionBody
}

// SelectStoreInput selects the active store.
type SelectStoreInput struct {
	Body struct {
		StoreID string `json:"store_id" minLength:"1" example:"de" doc:"Store id from GET /api/v1/stores"`
	}
}

// SetFiltersInput replaces the filter selection.
type SetFiltersInput struct {
	Body struct {
		Filters filter.Selection `json:"filters"`
	}
}

// GetSession returns the selected store, token state and filters.
func (h *SessionHandler) GetSession(_ context.Context, _ *struct{}) (*SessionOutput, error) {
	return h.view(), nil
}

// SelectStore makes input.Body.StoreID the active store.
func (h *SessionHandler) SelectStore(ctx context.Context, input *SelectStoreInput) (*SessionOutput, error) {
	if _, err := h.session.Select(ctx, input.Body.StoreID); err != nil {
		return nil, toHTTPError("selecting store", err)
	}
	return h.view(), nil
}

// SetFilters persists a new filter selection for the active store.
func (h *SessionHandler) SetFilters(ctx context.Context, input *SetFiltersInput) (*SessionOutput, error) {
	if _, err := h.session.Current(); err != nil {
		return nil, toHTTPError("setting filters", err)
	}
	if err := h.session.SetSelection(ctx, input.Body.Filters); err != nil {
		return nil, huma.Error500InternalServerError("setting filters: " + err.Error())
	}
	return h.view(), nil
}

func (h *SessionHandler) view() *SessionOutput {
	resp := &SessionOutput{}

	if cfg, err := h.session.Current(); err == nil {
		redacted := redact(*cfg)
		resp.Body.Store = &redacted
	}

	state := h.tokens.State()
	resp.Body.TokenState = state.String()
	if state != token.NoToken {
		exp := h.tokens.Expiry()
		resp.Body.TokenExpiry = &exp
	}
	if h.vs != nil {
		resp.Body.VisualSearchBaseURL = h.vs.BaseURL()
	}
	resp.Body.Filters = h.session.Selection()
	return resp
}

// RegisterSessionRoutes registers session endpoints with the Huma API.
func RegisterSessionRoutes(api huma.API, h *SessionHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/api/v1/session",
		Summary:     "Get the active session",
		Tags:        []string{"session"},
	}, h.GetSession)

	huma.Register(api, huma.Operation{
		OperationID: "select-store",
		Method:      http.MethodPost,
		Path:        "/api/v1/session/store",
		Summary:     "Select the active store",
		Description: "Persists the selection. Switching to a different store clears the " +
			"visual-search token and the filter selection.",
		Tags:   []string{"session"},
		Errors: []int{http.StatusNotFound, http.StatusBadGateway},
	}, h.SelectStore)

	huma.Register(api, huma.Operation{
		OperationID: "set-filters",
		Method:      http.MethodPut,
		Path:        "/api/v1/session/filters",
		Summary:     "Replace the filter selection",
		Tags:        []string{"session"},
		Errors:      []int{http.StatusConflict, http.StatusInternalServerError},
	}, h.SetFilters)
}

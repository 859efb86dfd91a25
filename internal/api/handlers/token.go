package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// TokenHandler forces a visual-search token refresh.
type TokenHandler struct {
	refresher TokenRefresher
	tokens    TokenStatus
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(r TokenRefresher, tokens TokenStatus) *TokenHandler {
	return &TokenHandler{refresher: r, tokens: tokens}
}

// RefreshTokenOutput is the response body for the refresh endpoint.
type RefreshTokenOutput struct {
	Body struct {
		Status     string    `json:"status"      example:"token refreshed"`
		TokenState string    `json:"token_state" example:"valid"`
		Expiry     time.Time `json:"expiry"`
	}
}

// Refresh exchanges the active store's API key for a new bearer token.
func (h *TokenHandler) Refresh(ctx context.Context, _ *struct{}) (*RefreshTokenOutput, error) {
	if err := h.refresher.Refresh(ctx); err != nil {
		return nil, toHTTPError("token refresh failed", err)
	}

	resp := &RefreshTokenOutput{}
	resp.Body.Status = "token refreshed"
	resp.Body.TokenState = h.tokens.State().String()
	resp.Body.Expiry = h.tokens.Expiry()
	return resp, nil
}

// RegisterTokenRoutes registers the token endpoint with the Huma API.
func RegisterTokenRoutes(api huma.API, h *TokenHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "refresh-token",
		Method:      http.MethodPost,
		Path:        "/api/v1/token/refresh",
		Summary:     "Refresh the visual-search token",
		Description: "Requests a new bearer token for the selected store. Refreshes " +
			"within a few seconds of a successful one are collapsed.",
		Tags:   []string{"session"},
		Errors: []int{http.StatusConflict, http.StatusBadGateway},
	}, h.Refresh)
}

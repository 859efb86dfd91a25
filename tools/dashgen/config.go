package main

import "errors"

// KnownMetrics is the set of metric families exported by storefront-query
// plus recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"sfq_http_request_duration_seconds": true,
	"sfq_http_requests_total":           true,

	// Health metrics.
	"sfq_healthz_up": true,
	"sfq_readyz_up":  true,

	// Backend metrics.
	"sfq_backend_request_duration_seconds": true,
	"sfq_backend_requests_total":           true,
	"sfq_catalog_daily_usage":              true,
	"sfq_catalog_daily_limit_hits_total":   true,

	// Auth metrics.
	"sfq_token_refreshes_total":               true,
	"sfq_authentication_expired_total":        true,
	"sfq_visual_search_client_rebuilds_total": true,

	// Listing metrics.
	"sfq_pages_fetched_total":       true,
	"sfq_page_fetch_failures_total": true,
	"sfq_category_defaulted_total":  true,

	// Recording rules.
	"sfq:http_requests:rate5m":          true,
	"sfq:http_errors:rate5m":            true,
	"sfq:backend_requests:rate5m":       true,
	"sfq:backend_errors:rate5m":         true,
	"sfq:pages_fetched:rate5m":          true,
	"sfq:page_fetch_failures:rate5m":    true,
	"sfq:token_refresh_failures:rate5m": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}

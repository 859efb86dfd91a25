package panels

import (
	"fmt"

	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// TokenRefreshes returns a timeseries panel showing bearer token refreshes
// by outcome.
func TokenRefreshes() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Token Refreshes").
		Description("Visual-search bearer token refreshes by outcome").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			fmt.Sprintf(`sum(increase(sfq_token_refreshes_total{job=%q}[1h])) by (outcome)`, Job),
			"{{outcome}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("sum")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleBars)
}

// AuthenticationExpired returns a timeseries panel showing the rate of
// visual-search 401 responses.
func AuthenticationExpired() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Authentication Expired").
		Description("Visual-search responses rejected with HTTP 401 per second").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			fmt.Sprintf(`rate(sfq_authentication_expired_total{job=%q}[5m])`, Job),
			"401/s", "A",
		)).
		Unit("reqps").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(0.01, 0.1)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

// ClientRebuilds returns a stat panel showing visual-search client rebuilds
// in the past 24 hours. A rebuild follows every store switch.
func ClientRebuilds() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Client Rebuilds (24h)").
		Description("Visual-search clients rebuilt for a new base URL").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			fmt.Sprintf(`increase(sfq_visual_search_client_rebuilds_total{job=%q}[24h])`, Job),
			"", "A",
		)).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemeThresholds()).
		GraphMode(common.BigValueGraphModeArea)
}

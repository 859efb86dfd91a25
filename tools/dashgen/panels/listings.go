package panels

import (
	"fmt"

	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// PagesRate returns a timeseries panel showing listing pages fetched per
// second by mode.
func PagesRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Pages Fetched").
		Description("Listing pages fetched per second by mode").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`sfq:pages_fetched:rate5m`, "{{mode}}", "A")).
		Unit("reqps").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// PageFailures returns a timeseries panel showing failed page fetches by mode.
func PageFailures() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Page Fetch Failures").
		Description("Failed listing page fetches per second by mode").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`sfq:page_fetch_failures:rate5m`, "{{mode}}", "A")).
		Unit("reqps").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(0.01, 0.1)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

// CategoryDefaulted returns a stat panel showing category ids that were sent
// under the default level in the past 24 hours.
func CategoryDefaulted() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Category Defaulted (24h)").
		Description("Selected category ids with no echoed level, sent under the default parameter").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			fmt.Sprintf(`increase(sfq_category_defaulted_total{job=%q}[24h])`, Job),
			"", "A",
		)).
		Thresholds(ThresholdsGreenYellowRed(10, 100)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}

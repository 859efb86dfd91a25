// Package panels builds the Grafana panels for storefront-query. Every
// panel queries the ${datasource} variable and filters on Job.
package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/cog"
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/grafana/grafana-foundation-sdk/go/prometheus"
)

// CatalogDailyLimit scales the quota panels. Keep in sync with
// primary.rate_limit.daily_limit.
const CatalogDailyLimit = 5000

// Job is the scrape job label of the server.
const Job = "storefront-query"

// Grid sizes on Grafana's 24 column layout: four stats or two time
// series per row.
const (
	StatWidth  = 6
	StatHeight = 4
	TSWidth    = 12
	TSHeight   = 8
)

// DSRef points at the ${datasource} template variable.
func DSRef() dashboard.DataSourceRef {
	return dashboard.DataSourceRef{
		Type: cog.ToPtr("prometheus"),
		Uid:  cog.ToPtr("${datasource}"),
	}
}

// PromQuery is a Prometheus target.
func PromQuery(expr, legendFormat, refID string) *prometheus.DataqueryBuilder {
	return prometheus.NewDataqueryBuilder().
		Expr(expr).
		LegendFormat(legendFormat).
		RefId(refID)
}

// steps starts at base and switches color at each threshold.
func steps(base string, raise ...dashboard.Threshold) cog.Builder[dashboard.ThresholdsConfig] {
	return dashboard.NewThresholdsConfigBuilder().
		Mode(dashboard.ThresholdsModeAbsolute).
		Steps(append([]dashboard.Threshold{{Color: base}}, raise...))
}

func at(value float64, color string) dashboard.Threshold {
	return dashboard.Threshold{Value: cog.ToPtr(value), Color: color}
}

// ThresholdsRedGreen is red until greenAbove, used for up/down probes.
func ThresholdsRedGreen(greenAbove float64) cog.Builder[dashboard.ThresholdsConfig] {
	return steps("red", at(greenAbove, "green"))
}

// ThresholdsGreenYellowRed is used for error rates, latencies and quota.
func ThresholdsGreenYellowRed(yellow, red float64) cog.Builder[dashboard.ThresholdsConfig] {
	return steps("green", at(yellow, "yellow"), at(red, "red"))
}

// ThresholdsGreenOnly is for series with no bad value.
func ThresholdsGreenOnly() cog.Builder[dashboard.ThresholdsConfig] {
	return steps("green")
}

// ColorSchemeThresholds colors by the threshold steps.
func ColorSchemeThresholds() cog.Builder[dashboard.FieldColor] {
	return dashboard.NewFieldColorBuilder().Mode(dashboard.FieldColorModeIdThresholds)
}

// ColorSchemePaletteClassic gives each series its own color.
func ColorSchemePaletteClassic() cog.Builder[dashboard.FieldColor] {
	return dashboard.NewFieldColorBuilder().Mode(dashboard.FieldColorModeIdPaletteClassic)
}

// TableLegend puts a table legend under the graph with the given
// reductions ("mean", "max", "lastNotNull").
func TableLegend(calcs ...string) *common.VizLegendOptionsBuilder {
	return common.NewVizLegendOptionsBuilder().
		DisplayMode(common.LegendDisplayModeTable).
		Placement(common.LegendPlacementBottom).
		Calcs(calcs)
}

// MultiTooltip shows every series, largest first.
func MultiTooltip() *common.VizTooltipOptionsBuilder {
	return common.NewVizTooltipOptionsBuilder().
		Mode(common.TooltipDisplayModeMulti).
		Sort(common.SortOrderDescending)
}

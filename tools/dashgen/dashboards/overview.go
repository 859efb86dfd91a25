// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/storefront-query/tools/dashgen/panels"
)

// BuildOverview constructs the storefront-query overview dashboard with all
// metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("SFQ Overview").
		Uid("sfq-overview").
		Tags([]string{"sfq", "storefront-query"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.QuotaGauge()).
		WithPanel(panels.UptimeStat()))

	// Row 2: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	// Row 3: Backends.
	b.WithRow(dashboard.NewRowBuilder("Backends").
		WithPanel(panels.BackendRequestRate()).
		WithPanel(panels.BackendLatency()).
		WithPanel(panels.BackendErrors()).
		WithPanel(panels.DailyUsage()).
		WithPanel(panels.LimitHits()))

	// Row 4: Visual-search auth.
	b.WithRow(dashboard.NewRowBuilder("Visual Search Auth").
		WithPanel(panels.TokenRefreshes()).
		WithPanel(panels.AuthenticationExpired()).
		WithPanel(panels.ClientRebuilds()))

	// Row 5: Listings.
	b.WithRow(dashboard.NewRowBuilder("Listings").
		WithPanel(panels.PagesRate()).
		WithPanel(panels.PageFailures()).
		WithPanel(panels.CategoryDefaulted()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}

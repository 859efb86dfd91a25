package rules

// AlertRules returns the storefront-query alerts. They read the recording
// rules from RecordingRules, so both files must be loaded together.
func AlertRules() PrometheusRule {
	return resource("sfq-alerts", "sfq-alerts",
		alert("SfqDown", `absent(up{job="storefront-query"})`, "2m", "critical",
			"storefront-query is down",
			"The storefront-query job has been absent for more than 2 minutes.",
		),
		alert("SfqReadinessDown", `sfq_readyz_up == 0`, "2m", "critical",
			"storefront-query readiness check is failing",
			"The session store has been unreachable for more than 2 minutes.",
		),
		alert("SfqHighErrorRate", `sfq:http_errors:rate5m / sfq:http_requests:rate5m > 0.05`, "5m", "warning",
			"High HTTP error rate on storefront-query",
			"More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
		),
		alert("SfqBackendErrors", `sfq:backend_errors:rate5m > 0.1`, "5m", "warning",
			"Backend requests are failing",
			"Catalog or visual-search requests have been failing at more than 0.1/s for 5 minutes.",
		),
		alert("SfqTokenRefreshFailing", `sfq:token_refresh_failures:rate5m > 0`, "10m", "warning",
			"Visual-search token refresh is failing",
			"Bearer token refreshes have failed for 10 minutes. Visual search will stop working once the token expires.",
		),
		alert("SfqCatalogQuotaHigh", `sfq_catalog_daily_usage > 4000`, "5m", "warning",
			"Catalog API daily usage is above 80% of the quota",
			"Daily catalog API usage has exceeded 4000 calls (limit is 5000).",
		),
		alert("SfqCatalogLimitReached", `increase(sfq_catalog_daily_limit_hits_total[5m]) > 0`, "0m", "critical",
			"Catalog API daily limit has been reached",
			"The catalog API daily quota has been exhausted. Browse requests fail until reset.",
		),
	)
}

package rules

// RecordingRules returns the pre-computed rates shared by the dashboard and
// AlertRules.
func RecordingRules() PrometheusRule {
	return resource("sfq-recording-rules", "sfq-recording",
		record("sfq:http_requests:rate5m", `sum(rate(sfq_http_requests_total[5m]))`),
		record("sfq:http_errors:rate5m", `sum(rate(sfq_http_requests_total{status=~"5.."}[5m]))`),
		record("sfq:backend_requests:rate5m", `sum(rate(sfq_backend_requests_total[5m])) by (backend)`),
		record("sfq:backend_errors:rate5m", `sum(rate(sfq_backend_requests_total{status=~"5..|error"}[5m])) by (backend)`),
		record("sfq:pages_fetched:rate5m", `sum(rate(sfq_pages_fetched_total[5m])) by (mode)`),
		record("sfq:page_fetch_failures:rate5m", `sum(rate(sfq_page_fetch_failures_total[5m])) by (mode)`),
		record("sfq:token_refresh_failures:rate5m", `sum(rate(sfq_token_refreshes_total{outcome="failure"}[5m]))`),
	)
}

package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Data freshness
	MetricCatalogFreshness  = "floats.catalog_age_seconds"
	MetricCompletionLatency = "chat.completion_latency"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricChatQueries     = "business.chat_queries"
	MetricQuotaRejections = "business.quota_rejections"
)

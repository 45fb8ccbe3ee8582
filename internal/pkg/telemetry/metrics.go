package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Upstream providers
	MetricGeocodeLatency      = "geocode.request_latency"
	MetricNeighborhoodLatency = "neighborhoods.request_latency"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricSpotsResolved  = "business.spots_resolved"
	MetricSpotsRejected  = "business.spots_rejected"
	MetricHoodsRefreshed = "business.neighborhoods_refreshed"
)

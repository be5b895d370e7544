package observability

import "time"

// MetricsRegistry provides an interface for recording application metrics
// This replaces direct access to global Prometheus metrics with dependency injection
type MetricsRegistry interface {
	// HTTP request metrics
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	// Outbound ad platform call metrics
	IncrementPlatformRequests(operation, outcome string)
	RecordPlatformLatency(operation string, duration time.Duration)

	// Bulk publish metrics
	IncrementPublishRuns(outcome string)
	AddAdsPublished(count int)
	IncrementRollbackDeletes(outcome string)

	// OAuth metrics
	IncrementOAuthFlows(result string)

	// Insights metrics
	IncrementInsightFetches(outcome string)

	// Copy generation metrics
	IncrementCopyGenerations(outcome string)
}

// PrometheusRegistry implements MetricsRegistry using the global Prometheus metrics
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

func (r *PrometheusRegistry) IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	RequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementPlatformRequests(operation, outcome string) {
	PlatformRequests.WithLabelValues(operation, outcome).Inc()
}

func (r *PrometheusRegistry) RecordPlatformLatency(operation string, duration time.Duration) {
	PlatformLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementPublishRuns(outcome string) {
	PublishRuns.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRegistry) AddAdsPublished(count int) {
	AdsPublished.Add(float64(count))
}

func (r *PrometheusRegistry) IncrementRollbackDeletes(outcome string) {
	RollbackDeletes.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRegistry) IncrementOAuthFlows(result string) {
	OAuthFlows.WithLabelValues(result).Inc()
}

func (r *PrometheusRegistry) IncrementInsightFetches(outcome string) {
	InsightFetches.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRegistry) IncrementCopyGenerations(outcome string) {
	CopyGenerations.WithLabelValues(outcome).Inc()
}

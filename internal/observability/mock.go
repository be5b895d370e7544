package observability

import "time"

// NoOpRegistry implements MetricsRegistry with no-op methods for testing
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry for testing
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

func (r *NoOpRegistry) IncrementRequests(endpoint, method, status string)                 {}
func (r *NoOpRegistry) RecordRequestLatency(endpoint, method string, d time.Duration)     {}
func (r *NoOpRegistry) IncrementPlatformRequests(operation, outcome string)               {}
func (r *NoOpRegistry) RecordPlatformLatency(operation string, duration time.Duration)    {}
func (r *NoOpRegistry) IncrementPublishRuns(outcome string)                               {}
func (r *NoOpRegistry) AddAdsPublished(count int)                                         {}
func (r *NoOpRegistry) IncrementRollbackDeletes(outcome string)                           {}
func (r *NoOpRegistry) IncrementOAuthFlows(result string)                                 {}
func (r *NoOpRegistry) IncrementInsightFetches(outcome string)                            {}
func (r *NoOpRegistry) IncrementCopyGenerations(outcome string)                           {}

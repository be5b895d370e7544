package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adcraft_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adcraft_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// outbound ad platform calls labelled by operation and outcome
	PlatformRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adcraft_platform_requests_total",
			Help: "Total ad platform API calls",
		},
		[]string{"operation", "outcome"},
	)

	// latency of outbound ad platform calls per operation
	PlatformLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adcraft_platform_request_duration_seconds",
			Help:    "Duration of ad platform API calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// bulk publish runs labelled by outcome (success, validation_error, rolled_back)
	PublishRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adcraft_publish_runs_total",
			Help: "Total bulk publish runs",
		},
		[]string{"outcome"},
	)

	// ads successfully published
	AdsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adcraft_ads_published_total",
			Help: "Total ads successfully published",
		},
	)

	// rollback deletes labelled by outcome
	RollbackDeletes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adcraft_rollback_deletes_total",
			Help: "Total best-effort deletes issued during rollback",
		},
		[]string{"outcome"},
	)

	// OAuth flows labelled by result (started, exchanged, rejected, failed)
	OAuthFlows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adcraft_oauth_flows_total",
			Help: "Total OAuth authorization flow events",
		},
		[]string{"result"},
	)

	// per-record insight fetches labelled by outcome
	InsightFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adcraft_insight_fetches_total",
			Help: "Total per-ad insight fetches",
		},
		[]string{"outcome"},
	)

	// copy generation requests labelled by outcome
	CopyGenerations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adcraft_copy_generations_total",
			Help: "Total copy generation requests",
		},
		[]string{"outcome"},
	)
)

func init() {
	// register all metrics
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		PlatformRequests,
		PlatformLatency,
		PublishRuns,
		AdsPublished,
		RollbackDeletes,
		OAuthFlows,
		InsightFetches,
		CopyGenerations,
	)
}

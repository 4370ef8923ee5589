package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "contentstore", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "contentstore", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	// ContentOperations counts content operations by name (list, get, update,
	// append, replace, delete) and outcome (ok, not_found, invalid, conflict,
	// error, sync_failed, unchanged).
	ContentOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "contentstore", Name: "content_operations_total", Help: "Content operations by operation and outcome."},
		[]string{"operation", "outcome"},
	)
	ContentOperationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "contentstore", Name: "content_operation_seconds", Help: "Content operation latency.", Buckets: prometheus.DefBuckets},
		[]string{"operation"},
	)
	VersionConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "contentstore", Name: "version_conflicts_total", Help: "Writes retried because the document changed after it was read."},
	)
	SyncFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "contentstore", Name: "replica_sync_failures_total", Help: "Committed writes whose replica sync failed."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(ContentOperations)
	reg.MustRegister(ContentOperationSeconds)
	reg.MustRegister(VersionConflicts)
	reg.MustRegister(SyncFailures)
}

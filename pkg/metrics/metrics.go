package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "autokatalog", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "autokatalog", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	ModerationEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "autokatalog", Name: "moderation_events_total", Help: "Catalog lifecycle transitions by event (submit, approve, reject, create, edit, delete)."},
		[]string{"event"},
	)
	AssetCleanupFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "autokatalog", Name: "asset_cleanup_failures_total", Help: "Asset deletions that failed after a committed record mutation."},
	)
	StoreOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "autokatalog", Name: "store_operations_total", Help: "Document store operations by kind and result."},
		[]string{"op", "result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(ModerationEvents)
	reg.MustRegister(AssetCleanupFailures)
	reg.MustRegister(StoreOperations)
}

// Result maps an error to the "result" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

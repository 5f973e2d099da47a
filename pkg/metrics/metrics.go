package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Redemption metrics
	RedemptionOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemption_outcomes_total",
			Help: "Redemption operations by outcome (success, rejection reason or error)",
		},
		[]string{"operation", "outcome"},
	)
	RedemptionsExpiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemptions_expired_total",
			Help: "Pending redemptions moved to expired, by trigger",
		},
		[]string{"source"},
	)
	RedemptionCodeCollisionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "redemption_code_collisions_total",
			Help: "Generated code pairs rejected because a pending record already held them",
		},
	)
	RateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by a rate limiter",
		},
		[]string{"limiter"},
	)
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"

	ExpiredLazy  = "lazy"
	ExpiredSweep = "sweep"
	ExpiredTask  = "task"
)

var registerOnce sync.Once

func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestDuration)

		prometheus.MustRegister(RedemptionOutcomesTotal)
		prometheus.MustRegister(RedemptionsExpiredTotal)
		prometheus.MustRegister(RedemptionCodeCollisionsTotal)
		prometheus.MustRegister(RateLimitedTotal)
	})
}

// ObserveOutcome ghi nhận kết quả của một operation.
// reason rỗng và err nil nghĩa là success.
func ObserveOutcome(operation, reason string, err error) {
	outcome := OutcomeSuccess
	switch {
	case err != nil:
		outcome = OutcomeError
	case reason != "":
		outcome = reason
	}
	RedemptionOutcomesTotal.WithLabelValues(operation, outcome).Inc()
}

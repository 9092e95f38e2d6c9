package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OTPRequests counts one-time-code issuance requests by flow (signup|signin) and result.
	OTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "noteapp_otp_requests_total",
			Help: "Total number of one-time-code issuance requests",
		},
		[]string{"flow", "result"},
	)

	// OTPVerifications counts verification attempts by flow and result (success|failure).
	OTPVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "noteapp_otp_verifications_total",
			Help: "Total number of one-time-code verification attempts",
		},
		[]string{"flow", "result"},
	)

	// FederatedSignins counts Google sign-in callbacks by result.
	FederatedSignins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "noteapp_federated_signins_total",
			Help: "Total number of federated sign-in completions",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "noteapp_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Package observability holds the Prometheus collectors shared across layers.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by method, route template and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anonchat_http_requests_total",
		Help: "Total number of HTTP requests handled",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration records handler latency by method and route template.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "anonchat_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// SignupOutcomes counts signup decisions.
	SignupOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anonchat_signup_outcomes_total",
		Help: "Signup requests by outcome",
	}, []string{"outcome"})

	// VerificationEmails counts verification email attempts by result.
	VerificationEmails = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anonchat_verification_emails_total",
		Help: "Verification emails by delivery result",
	}, []string{"result"})

	// MessageDeliveries counts inbox deliveries processed by the worker.
	MessageDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anonchat_message_deliveries_total",
		Help: "Inbox message deliveries by result",
	}, []string{"result"})

	// ExpiredCodesCleared counts verification codes blanked by the sweeper.
	ExpiredCodesCleared = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anonchat_expired_codes_cleared_total",
		Help: "Expired verification codes cleared by the sweeper",
	})
)

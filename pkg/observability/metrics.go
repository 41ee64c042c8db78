// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the API server.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fusion_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fusion_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
	)

	// EventsPublishedTotal counts domain events published by topic.
	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_events_published_total",
			Help: "Domain events published",
		},
		[]string{"topic"},
	)

	// EventHandlerFailuresTotal counts event handler failures by topic.
	EventHandlerFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_event_handler_failures_total",
			Help: "Event handler failures",
		},
		[]string{"topic"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		RateLimitRejectedTotal,
		EventsPublishedTotal,
		EventHandlerFailuresTotal,
	)
}

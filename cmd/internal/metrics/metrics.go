// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "besocial_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "besocial_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Realtime metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "besocial_ws_connections",
			Help: "Currently registered realtime connections",
		},
	)

	PresenceBroadcasts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "besocial_presence_broadcasts_total",
			Help: "Total roster broadcasts triggered by registry mutations",
		},
	)

	MessagesRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "besocial_messages_routed_total",
			Help: "Total route attempts for persisted messages",
		},
		[]string{"outcome"}, // "delivered", "offline" or "dropped"
	)

	// Business metrics
	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "besocial_messages_sent_total",
			Help: "Total direct messages persisted",
		},
	)

	PostsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "besocial_posts_created_total",
			Help: "Total feed posts created",
		},
	)

	SuggestionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "besocial_suggestion_requests_total",
			Help: "Total AI reply suggestion requests",
		},
		[]string{"result"}, // "generated" or "fallback"
	)

	AssistantChats = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "besocial_assistant_chats_total",
			Help: "Total AI assistant chat turns",
		},
		[]string{"result"}, // "generated" or "failed"
	)
)

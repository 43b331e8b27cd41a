package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threads_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "threads_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	UsersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "threads_users_registered_total",
			Help: "Total users registered",
		},
	)

	PostsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "threads_posts_created_total",
			Help: "Total posts created",
		},
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threads_messages_sent_total",
			Help: "Total direct messages sent",
		},
		[]string{"delivery"}, // "pushed" when the recipient was online, else "stored"
	)

	ConversationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "threads_conversations_created_total",
			Help: "Total conversations created",
		},
	)

	// Realtime metrics
	OnlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "threads_online_users",
			Help: "Users currently registered on the realtime gateway",
		},
	)

	RealtimeEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threads_realtime_events_total",
			Help: "Realtime events pushed to clients",
		},
		[]string{"event"},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "threads_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)

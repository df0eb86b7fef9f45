package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	MessagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatsapp_messages_sent_total",
			Help: "WhatsApp messages successfully handed to the provider",
		},
		[]string{"type"},
	)

	MessagesFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatsapp_messages_failed_total",
			Help: "WhatsApp messages that failed to send",
		},
		[]string{"type"},
	)

	PurchasesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "purchases_created_total",
			Help: "Purchases recorded in the ledger",
		},
	)

	DepositsAppliedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deposits_applied_total",
			Help: "Deposit updates applied to purchases",
		},
	)
)

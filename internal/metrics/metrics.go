package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Webhook ingestion metrics
	WebhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookrelay_webhooks_total",
			Help: "Total number of webhooks received",
		},
		[]string{"source", "format", "status"},
	)

	WebhookBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hookrelay_webhook_bytes_total",
			Help: "Total bytes of webhook payloads received",
		},
	)

	// Transformation metrics
	TransformDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hookrelay_transform_duration_seconds",
			Help:    "Duration of parse and format in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source", "format"},
	)

	// Delivery metrics
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookrelay_deliveries_total",
			Help: "Total number of sink deliveries by outcome",
		},
		[]string{"sink", "outcome"},
	)

	DeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hookrelay_delivery_duration_seconds",
			Help:    "Duration of sink deliveries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sink"},
	)

	DeliveriesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hookrelay_deliveries_dropped_total",
			Help: "Deliveries dropped because the dispatch queue was full or closed",
		},
	)

	DispatchQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hookrelay_dispatch_queue_depth",
			Help: "Current depth of the dispatch queue",
		},
	)

	// Rate limiting metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookrelay_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"scope"},
	)

	// Billing metrics
	EntitlementsGranted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hookrelay_entitlements_granted_total",
			Help: "Total number of paid access grants from checkout events",
		},
	)

	StripeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookrelay_stripe_events_total",
			Help: "Total number of Stripe billing webhooks by outcome",
		},
		[]string{"outcome"},
	)
)

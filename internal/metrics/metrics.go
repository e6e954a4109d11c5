package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationsScheduled tracks created scheduled-notification records
	NotificationsScheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smart_reminder_scheduled_total",
			Help: "Total number of scheduled notification records created",
		},
		[]string{"category", "priority"},
	)

	// NotificationsDelivered tracks delivery attempts by outcome
	NotificationsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smart_reminder_delivered_total",
			Help: "Total number of notification delivery attempts",
		},
		[]string{"channel", "status"},
	)

	// GroupedBatches tracks batch presentations produced by the evaluator
	GroupedBatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "smart_reminder_grouped_batches_total",
			Help: "Total number of batched (grouped) presentations",
		},
	)

	// EvaluatorPassDuration tracks how long an evaluation pass takes
	EvaluatorPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "smart_reminder_evaluator_pass_seconds",
			Help:    "Trigger evaluation pass duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// PendingActionsQueued tracks actions persisted for later replay
	PendingActionsQueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "smart_reminder_pending_actions_queued_total",
			Help: "Total number of notification actions queued for replay",
		},
	)

	// PendingActionsReplayed tracks actions replayed to a page context
	PendingActionsReplayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "smart_reminder_pending_actions_replayed_total",
			Help: "Total number of queued notification actions replayed",
		},
	)

	// ConnectedPages tracks currently attached page contexts
	ConnectedPages = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "smart_reminder_connected_pages",
			Help: "Number of currently connected page contexts",
		},
	)

	// SnoozeRequests tracks snooze operations
	SnoozeRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "smart_reminder_snoozes_total",
			Help: "Total number of snooze requests",
		},
	)

	// RateLimitExceeded tracks rate limit violations per client
	RateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smart_reminder_rate_limit_exceeded_total",
			Help: "Total number of rate limit exceeded events",
		},
		[]string{"client_id"},
	)
)

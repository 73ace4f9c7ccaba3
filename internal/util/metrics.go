package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrdersCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_completed_total",
		Help: "Total number of orders marked received by the buyer",
	})

	TransitionsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_rejected_total",
		Help: "Total number of rejected order status transitions",
	}, []string{"reason"})

	ScoreRecalcTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trust_score_recalculations_total",
		Help: "Total number of trust score recalculations",
	})

	ScoreRecalcFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trust_score_recalculation_failures_total",
		Help: "Total number of failed trust score recalculations",
	})

	PriceObservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_observations_total",
		Help: "Total number of price observations appended",
	}, []string{"source"})

	AlertsEvaluatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_alerts_evaluated_total",
		Help: "Total number of price alerts evaluated",
	}, []string{"path"})

	AlertsTriggeredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_alerts_triggered_total",
		Help: "Total number of price alerts that fired",
	}, []string{"path"})

	NotificationsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Total number of notifications dispatched",
	})

	NotificationsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Total number of failed notification dispatches",
	})

	RatingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ratings_created_total",
		Help: "Total number of ratings created",
	})

	RatingsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ratings_rejected_total",
		Help: "Total number of rejected rating submissions",
	}, []string{"reason"})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "alert_sweep_duration_seconds",
		Help:    "Duration of periodic alert sweeps",
		Buckets: prometheus.DefBuckets,
	})

	SettlementStepFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_step_failures_total",
		Help: "Total number of failed settlement steps",
	}, []string{"step"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Push dispatch metrics
	PushSent        *prometheus.CounterVec
	PushFailed      *prometheus.CounterVec
	PushPruned      prometheus.Counter
	DispatchLatency prometheus.Histogram
	DispatchBatches prometheus.Counter

	// Status metrics
	StatusRefreshes   prometheus.Counter
	StatusTransitions *prometheus.CounterVec

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		PushSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "push_sent_total",
			Help:      "Total number of push notifications delivered to the push service",
		}, []string{"category"}),
		PushFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "push_failed_total",
			Help:      "Total number of failed push deliveries",
		}, []string{"category", "reason"}),
		PushPruned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "push_subscriptions_pruned_total",
			Help:      "Subscriptions removed after the push service reported them gone",
		}),
		DispatchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "push_dispatch_duration_seconds",
			Help:      "Time spent fanning out one broadcast",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		DispatchBatches: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "push_dispatch_batches_total",
			Help:      "Total number of fan-out batches processed",
		}),
		StatusRefreshes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "status_refreshes_total",
			Help:      "Total number of shop status re-evaluations",
		}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "status_transitions_total",
			Help:      "Shop status kind transitions",
		}, []string{"from", "to"}),
		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
	}
}

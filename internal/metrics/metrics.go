// Package metrics exposes delivery counters on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_deliveries_total",
		Help: "Channel delivery attempts by outcome.",
	}, []string{"channel", "provider", "outcome"})

	EventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_store_events_total",
		Help: "Raw store events received per subscription stream.",
	}, []string{"stream"})

	DuplicatesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notify_duplicates_dropped_total",
		Help: "Notifications suppressed by session deduplication.",
	})
)

// Outcome labels a DeliveryResult for the counter.
func Outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

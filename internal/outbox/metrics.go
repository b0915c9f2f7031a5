// internal/outbox/metrics.go
package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	publishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_published_total",
		Help: "Number of outbox messages successfully published.",
	})
	publishFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_publish_failures_total",
		Help: "Number of failed publish attempts (each increments retry_count).",
	})
	deadLettersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_dead_letters_total",
		Help: "Number of messages that exhausted the retry budget.",
	})
	purgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outbox_purged_total",
		Help: "Number of processed messages removed by the retention job.",
	})
)

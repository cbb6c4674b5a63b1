// Package metrics defines the Prometheus instruments exposed on /metrics.
//
// Persistence and enrichment failures are deliberately invisible to
// producers, so the counters here are the only place those failure modes
// surface outside the logs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationsCreated counts notifications accepted by the store.
	NotificationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_notifications_created_total",
		Help: "Number of notifications created.",
	})

	// EventsBroadcast counts bus broadcasts by event kind.
	EventsBroadcast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beacon_events_broadcast_total",
		Help: "Number of events broadcast on the bus, by kind.",
	}, []string{"kind"})

	// SummariesProduced counts enrichment runs that produced a summary.
	SummariesProduced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_summaries_produced_total",
		Help: "Number of AI summaries successfully produced.",
	})

	// SummaryFailures counts enrichment runs resolved to "no summary".
	SummaryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_summary_failures_total",
		Help: "Number of enrichment runs that failed or timed out.",
	})

	// FlushFailures counts failed writes of the notification file. The
	// in-memory state stays authoritative, so a growing value here means
	// memory and disk are diverging.
	FlushFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beacon_flush_failures_total",
		Help: "Number of failed notification file writes.",
	})

	// StreamClients tracks currently connected event-stream subscribers.
	StreamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_stream_clients",
		Help: "Number of connected SSE clients.",
	})
)

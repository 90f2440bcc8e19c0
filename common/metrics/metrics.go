package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Realtime metrics
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saathi_realtime_events_published_total",
			Help: "Total number of events written as a workspace's latest event, by type",
		},
		[]string{"type"},
	)

	PublishFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "saathi_realtime_publish_failures_total",
			Help: "Total number of publishes that failed to reach the store",
		},
	)

	EventsDelivered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "saathi_realtime_events_delivered_total",
			Help: "Total number of events forwarded to stream connections",
		},
	)

	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "saathi_realtime_active_connections",
			Help: "Number of open realtime stream connections",
		},
	)

	PollErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "saathi_realtime_poll_errors_total",
			Help: "Total number of poll ticks that failed to read the store",
		},
	)

	PresenceEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "saathi_realtime_presence_evictions_total",
			Help: "Total number of stale users removed from active sets",
		},
	)

	// Store metrics
	StoreFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "saathi_store_fallbacks_total",
			Help: "Total number of operations served by the in-memory store after the primary failed",
		},
	)

	StoreBackendUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "saathi_store_primary_up",
			Help: "Whether the primary key-value store is currently in use (1) or bypassed (0)",
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saathi_api_requests_total",
			Help: "Total number of API requests by method and status",
		},
		[]string{"method", "status"},
	)
)

func init() {
	prometheus.MustRegister(EventsPublished)
	prometheus.MustRegister(PublishFailures)
	prometheus.MustRegister(EventsDelivered)
	prometheus.MustRegister(ActiveConnections)
	prometheus.MustRegister(PollErrors)
	prometheus.MustRegister(PresenceEvictions)
	prometheus.MustRegister(StoreFallbacks)
	prometheus.MustRegister(StoreBackendUp)
	prometheus.MustRegister(APIRequestsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

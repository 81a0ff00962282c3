package netbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for API client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netbox_requests_total",
		Help: "Total NetBox API requests by method and status",
	}, []string{"method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "netbox_request_duration_seconds",
		Help:    "NetBox API request duration in seconds by method",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"method"})

	inFlightRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "netbox_in_flight_requests",
		Help: "NetBox API requests currently holding a concurrency permit",
	})

	permitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "netbox_permit_wait_seconds",
		Help:    "Time spent waiting for a request concurrency permit",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
	})

	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netbox_pages_fetched_total",
		Help: "Total pages fetched by the paginator, probes excluded",
	})
)

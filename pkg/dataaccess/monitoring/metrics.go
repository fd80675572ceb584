package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreLatency is the duration of role mapping store queries.
	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dataaccess_store_latency",
			Help: "Duration of role mapping store queries",
		},
		[]string{"dal", "query", "backend"},
	)

	// StoreTotalRequests is the total number of role mapping store queries.
	StoreTotalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataaccess_store_total_requests",
			Help: "Total number of role mapping store queries",
		},
		[]string{"dal", "query", "backend"},
	)

	// StoreErrors is the total number of failed role mapping store queries.
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataaccess_store_errors_total",
			Help: "Total number of failed role mapping store queries",
		},
		[]string{"dal", "query", "backend"},
	)
)

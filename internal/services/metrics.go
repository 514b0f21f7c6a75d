package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	placeSearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "place_search_total",
			Help: "Place searches by the path that served them",
		},
		[]string{"path"},
	)

	placeStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "place_store_errors_total",
			Help: "Place store failures by operation",
		},
		[]string{"op"},
	)

	providerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "place_provider_duration_seconds",
			Help:    "Duration of external place lookups",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	agentRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_requests_total",
			Help: "Agent invocations by outcome",
		},
		[]string{"outcome"},
	)
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Step labels for OrderStepDuration and LLMOutputFallbacks.
const (
	StepExtractConstraints = "extract-constraints"
	StepSearch             = "search"
	StepSelectCandidate    = "select-candidate"
)

var (
	OrderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_requests_total",
			Help: "Total number of order planning requests by outcome",
		},
		[]string{"status"},
	)

	OrderStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "order_step_duration_seconds",
			Help: "Duration of each order pipeline step in seconds",
		},
		[]string{"step"},
	)

	LLMOutputFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_output_fallbacks_total",
			Help: "Number of times malformed model output was replaced by a fallback",
		},
		[]string{"step"},
	)

	ProviderSearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_search_total",
			Help: "Restaurant provider searches by platform and outcome",
		},
		[]string{"platform", "outcome"},
	)

	SearchCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_cache_lookups_total",
			Help: "Search cache lookups by result",
		},
		[]string{"result"},
	)

	OrdersInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orders_in_flight",
			Help: "Number of order plans currently being computed",
		},
	)
)

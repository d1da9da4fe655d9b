package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesFetched tracks page fetches by outcome ("ok", "transport_error", "malformed")
	PagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "github_pages_fetched_total",
			Help: "Total number of listing pages fetched by outcome",
		},
		[]string{"outcome"},
	)

	// PageFetchDuration tracks the latency of a single page fetch
	PageFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "github_page_fetch_duration_seconds",
			Help:    "Duration of listing page fetches in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	// PageElements tracks the number of elements per fetched page
	PageElements = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "github_page_elements",
			Help:    "Number of elements in fetched listing pages",
			Buckets: []float64{0, 1, 10, 30, 50, 100},
		},
	)

	// SequenceElements tracks elements handed to callers after mapping
	SequenceElements = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "github_sequence_elements_total",
			Help: "Total number of listing elements consumed by callers",
		},
	)
)

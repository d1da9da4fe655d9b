package bulk

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CapturedReads tracks JSON reads answered from listing pages instead of the network
	CapturedReads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "github_bulk_captured_reads_total",
			Help: "Total number of resource JSON reads served from captured listing JSON",
		},
	)

	// MaterializedItems tracks items wrapped by the bulk materializer
	MaterializedItems = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "github_bulk_items_total",
			Help: "Total number of listing items materialized with captured JSON",
		},
	)
)

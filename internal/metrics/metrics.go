// Package metrics exposes Prometheus instrumentation for the search engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SearchesTotal counts searches by outcome: "ok", "empty", "error".
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kibun_searches_total",
			Help: "Total number of searches by outcome",
		},
		[]string{"outcome"},
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kibun_search_duration_seconds",
			Help:    "Duration of searches in seconds, excluding any configured delay",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	// ThresholdRelaxationSteps records how many times the mood threshold
	// was lowered before a search produced results (or gave up).
	ThresholdRelaxationSteps = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kibun_threshold_relaxation_steps",
			Help:    "Number of threshold relaxation steps per mood search",
			Buckets: []float64{0, 1, 2, 3, 4},
		},
	)

	// ClassificationFallbacks counts books scored without signal:
	// "no_match" for the keyword fallback, "error" for the safe default.
	ClassificationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kibun_classification_fallbacks_total",
			Help: "Total number of books classified through a fallback path",
		},
		[]string{"reason"},
	)

	CatalogLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kibun_catalog_loads_total",
			Help: "Total number of catalog load attempts by result",
		},
		[]string{"result"},
	)

	CatalogBooks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kibun_catalog_books",
			Help: "Number of books in the cached catalog",
		},
	)
)

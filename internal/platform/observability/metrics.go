package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SignalsGathered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intel_signals_gathered_total",
		Help: "The total number of signals gathered, by source",
	}, []string{"source"})

	SignalsDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "intel_signals_deduplicated_total",
		Help: "The total number of duplicate signals dropped",
	})

	CrawlerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intel_crawler_failures_total",
		Help: "The total number of crawler-level failures",
	}, []string{"source"})

	InstanceHealth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "intel_search_instance_health",
		Help: "Health score of each metasearch instance",
	}, []string{"instance"})

	SearchRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "intel_search_request_duration_seconds",
		Help:    "Duration of metasearch instance requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"instance", "status"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "intel_llm_request_duration_seconds",
		Help:    "Duration of LLM requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	FallbackInvocations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "intel_fallback_invocations_total",
		Help: "The number of runs that needed the web-search fallback",
	})

	ReportConfidence = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "intel_report_confidence",
		Help: "Confidence score of the most recent intelligence report",
	})

	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "intel_pipeline_duration_seconds",
		Help:    "Duration of one full pipeline run",
		Buckets: []float64{10, 30, 60, 120, 300, 600, 1200, 1800},
	})
)

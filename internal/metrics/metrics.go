// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skilltrail_llm_requests_total",
		Help: "LLM provider calls by purpose and outcome",
	}, []string{"purpose", "outcome"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skilltrail_llm_request_duration_seconds",
		Help:    "Latency of individual LLM provider calls",
		Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
	}, []string{"purpose"})

	LLMCorrectiveRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skilltrail_llm_corrective_retries_total",
		Help: "Re-prompts issued after an invalid structured response",
	}, []string{"purpose"})

	CoverageRecomputes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skilltrail_coverage_recomputes_total",
		Help: "Node coverage scores recomputed",
	})

	NodesMaterialized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skilltrail_nodes_materialized_total",
		Help: "Generated tree nodes persisted or dropped",
	}, []string{"result"})

	VideoAnalyses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skilltrail_video_analyses_total",
		Help: "Video analyses by outcome",
	}, []string{"outcome"})

	OverlapsDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skilltrail_overlaps_detected_total",
		Help: "Video overlap rows recorded",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

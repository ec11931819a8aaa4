// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SlackInteractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slack_interactions_total",
			Help: "Inbound Slack interaction requests by type and response status",
		},
		[]string{"type", "status"},
	)

	IngestionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestion_outcomes_total",
			Help: "Terminal outcome of each background ingestion job",
		},
		[]string{"outcome"},
	)

	ClassificationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "classification_duration_seconds",
			Help:    "Latency of the completion request used to classify a message",
			Buckets: []float64{0.5, 1, 2, 3, 5, 8, 13, 21, 34},
		},
	)

	ClassificationConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "classification_confidence",
			Help:    "Confidence reported for accepted classifications",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	DispatchQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_queue_depth",
			Help: "Ingestion jobs waiting for a background worker",
		},
	)

	DispatchJobsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_jobs_active",
			Help: "Ingestion jobs currently running",
		},
	)
)

// Ingestion outcomes
const (
	OutcomeCreated              = "created"
	OutcomeDuplicate            = "duplicate"
	OutcomeUnlinked             = "unlinked"
	OutcomeClassificationFailed = "classification_failed"
	OutcomePersistFailed        = "persist_failed"
	OutcomeSkipped              = "skipped"
	OutcomePanicked             = "panicked"
)

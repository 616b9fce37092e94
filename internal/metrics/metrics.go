// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsProcessed counts processed rows per stage and outcome.
	RowsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gonews",
		Name:      "rows_processed_total",
		Help:      "Rows processed by each pipeline stage, by outcome.",
	}, []string{"stage", "outcome"})

	// StageDuration observes wall-clock stage durations.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gonews",
		Name:      "stage_duration_seconds",
		Help:      "Duration of whole stage runs.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"stage"})

	// FlushBatches counts batched write calls against the tabular store.
	FlushBatches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gonews",
		Name:      "flush_batches_total",
		Help:      "Batch update calls sent to the tabular store.",
	})

	// WorkflowRuns counts whole pipeline invocations by result.
	WorkflowRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gonews",
		Name:      "workflow_runs_total",
		Help:      "Pipeline invocations by result (ok, failed, busy).",
	}, []string{"result"})
)

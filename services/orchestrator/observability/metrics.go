// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the orchestrator.
//
// # Description
//
// Metrics cover the query pipeline end to end:
//   - Query counters by workflow and consensus outcome
//   - Consensus iteration histograms
//   - Processing-time histograms
//   - Pending human-validation queue gauge
//
// Metrics are exposed via the /metrics endpoint.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "remedium"

// Subsystem for query pipeline metrics
const pipelineSubsystem = "pipeline"

// PipelineMetrics holds all Prometheus metrics for query processing.
//
// # Fields
//
//   - QueriesTotal: Counter of processed queries by workflow and status
//   - ConsensusIterations: Histogram of iterations spent per consensus loop
//   - ProcessingSeconds: Histogram of end-to-end query latency
//   - ValidationQueueDepth: Gauge of pending human-validation requests
//   - TranslationsDegraded: Counter of answers served in the pivot language
//     because translation failed
type PipelineMetrics struct {
	// QueriesTotal counts queries by workflow and consensus status.
	// Labels: workflow (consensus, ethical_fallback), status (accepted, partial, blocked)
	QueriesTotal *prometheus.CounterVec

	// ConsensusIterations measures how many iterations each consensus loop used.
	ConsensusIterations prometheus.Histogram

	// ProcessingSeconds measures end-to-end query processing latency.
	// Labels: workflow
	ProcessingSeconds *prometheus.HistogramVec

	// ValidationQueueDepth tracks the pending human-validation queue.
	ValidationQueueDepth prometheus.Gauge

	// TranslationsDegraded counts responses that fell back to the pivot language.
	TranslationsDegraded prometheus.Counter
}

// DefaultMetrics is the singleton instance of PipelineMetrics.
var DefaultMetrics *PipelineMetrics

var initOnce sync.Once

// InitMetrics initializes and registers the default metrics instance.
// Subsequent calls return the already-registered instance, so tests can
// call it freely.
func InitMetrics() *PipelineMetrics {
	initOnce.Do(func() {
		DefaultMetrics = &PipelineMetrics{
			QueriesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Subsystem: pipelineSubsystem,
					Name:      "queries_total",
					Help:      "Total processed queries by workflow and consensus status",
				},
				[]string{"workflow", "status"},
			),

			ConsensusIterations: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: metricsNamespace,
					Subsystem: pipelineSubsystem,
					Name:      "consensus_iterations",
					Help:      "Consensus loop iterations used per query",
					Buckets:   []float64{1, 2, 3, 4, 5},
				},
			),

			ProcessingSeconds: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: metricsNamespace,
					Subsystem: pipelineSubsystem,
					Name:      "processing_seconds",
					Help:      "End-to-end query processing latency in seconds",
					Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
				},
				[]string{"workflow"},
			),

			ValidationQueueDepth: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: metricsNamespace,
					Subsystem: pipelineSubsystem,
					Name:      "validation_queue_depth",
					Help:      "Number of responses awaiting human validation",
				},
			),

			TranslationsDegraded: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Subsystem: pipelineSubsystem,
					Name:      "translations_degraded_total",
					Help:      "Responses served in the pivot language after a translation failure",
				},
			),
		}
	})
	return DefaultMetrics
}

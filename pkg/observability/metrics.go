// Package observability provides Prometheus metrics and OpenTelemetry tracing
// for the recap pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PipelineMetrics holds all Prometheus metrics for the recap pipeline.
type PipelineMetrics struct {
	// Stage metrics
	StagesTotal   *prometheus.CounterVec
	StageSeconds  *prometheus.HistogramVec
	IngestedTotal *prometheus.CounterVec

	// Transcription metrics
	ChunksTranscribedTotal *prometheus.CounterVec
	InaudibleChunksTotal   prometheus.Counter

	// Snapshot metrics
	SnapshotFilesTotal  *prometheus.CounterVec
	SnapshotCacheTotal  *prometheus.CounterVec
	SnapshotFetchBytes  prometheus.Counter

	// LLM metrics
	LLMCallsTotal    *prometheus.CounterVec
	LLMLatencySeconds *prometheus.HistogramVec
	LLMTokensTotal   *prometheus.CounterVec
	RecoveryTierTotal *prometheus.CounterVec

	// Distribution metrics
	DistributionsTotal *prometheus.CounterVec
}

// DefaultPipelineMetrics creates metrics registered on the default registerer.
func DefaultPipelineMetrics() *PipelineMetrics {
	return NewPipelineMetrics(prometheus.DefaultRegisterer)
}

// NewPipelineMetrics creates a new set of pipeline metrics.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	factory := promauto.With(reg)

	return &PipelineMetrics{
		StagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recap_stages_total",
				Help: "Total pipeline stage executions by outcome",
			},
			[]string{"stage", "status"},
		),
		StageSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recap_stage_seconds",
				Help:    "Pipeline stage latency",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"stage"},
		),
		IngestedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recap_inputs_total",
				Help: "Total inputs ingested by media kind",
			},
			[]string{"kind"},
		),
		ChunksTranscribedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recap_chunks_transcribed_total",
				Help: "Total audio chunks transcribed by outcome",
			},
			[]string{"status"},
		),
		InaudibleChunksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "recap_inaudible_chunks_total",
				Help: "Chunks replaced with the inaudible sentinel",
			},
		),
		SnapshotFilesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recap_snapshot_files_total",
				Help: "Repository files seen while building snapshots",
			},
			[]string{"action"},
		),
		SnapshotCacheTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recap_snapshot_cache_total",
				Help: "Snapshot cache hits and misses",
			},
			[]string{"result"},
		),
		SnapshotFetchBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "recap_snapshot_fetch_bytes_total",
				Help: "Total bytes fetched for repository snapshots",
			},
		),
		LLMCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recap_llm_calls_total",
				Help: "Total LLM calls by operation and outcome",
			},
			[]string{"operation", "model", "status"},
		),
		LLMLatencySeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recap_llm_latency_seconds",
				Help:    "LLM call latency",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 15, 30, 60},
			},
			[]string{"operation", "model"},
		),
		LLMTokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recap_llm_tokens_total",
				Help: "Total tokens by direction",
			},
			[]string{"direction", "model"},
		),
		RecoveryTierTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recap_recovery_tier_total",
				Help: "Structured output recovery outcomes by tier",
			},
			[]string{"tier"},
		),
		DistributionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recap_distributions_total",
				Help: "Distribution attempts by destination and outcome",
			},
			[]string{"destination", "status"},
		),
	}
}

// RecordStage records a completed stage execution.
func (m *PipelineMetrics) RecordStage(stage, status string, seconds float64) {
	m.StagesTotal.WithLabelValues(stage, status).Inc()
	m.StageSeconds.WithLabelValues(stage).Observe(seconds)
}

// RecordInput records an ingested input by media kind.
func (m *PipelineMetrics) RecordInput(kind string) {
	m.IngestedTotal.WithLabelValues(kind).Inc()
}

// RecordChunk records a transcribed chunk.
func (m *PipelineMetrics) RecordChunk(status string) {
	m.ChunksTranscribedTotal.WithLabelValues(status).Inc()
	if status == "inaudible" {
		m.InaudibleChunksTotal.Inc()
	}
}

// RecordSnapshotFile records a file seen during snapshot assembly.
func (m *PipelineMetrics) RecordSnapshotFile(action string, bytes int) {
	m.SnapshotFilesTotal.WithLabelValues(action).Inc()
	if bytes > 0 {
		m.SnapshotFetchBytes.Add(float64(bytes))
	}
}

// RecordSnapshotCache records a snapshot cache lookup result.
func (m *PipelineMetrics) RecordSnapshotCache(result string) {
	m.SnapshotCacheTotal.WithLabelValues(result).Inc()
}

// RecordLLMCall records an LLM call with latency and token usage.
func (m *PipelineMetrics) RecordLLMCall(operation, model, status string, seconds float64, inputTokens, outputTokens int) {
	m.LLMCallsTotal.WithLabelValues(operation, model, status).Inc()
	m.LLMLatencySeconds.WithLabelValues(operation, model).Observe(seconds)
	m.LLMTokensTotal.WithLabelValues("input", model).Add(float64(inputTokens))
	m.LLMTokensTotal.WithLabelValues("output", model).Add(float64(outputTokens))
}

// RecordRecoveryTier records which recovery tier produced the analysis record.
func (m *PipelineMetrics) RecordRecoveryTier(tier string) {
	m.RecoveryTierTotal.WithLabelValues(tier).Inc()
}

// RecordDistribution records a distribution attempt outcome.
func (m *PipelineMetrics) RecordDistribution(destination, status string) {
	m.DistributionsTotal.WithLabelValues(destination, status).Inc()
}

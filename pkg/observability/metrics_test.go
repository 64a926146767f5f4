package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordStage(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPipelineMetrics(reg)

	m.RecordStage("transcribe", "ok", 1.5)
	m.RecordStage("transcribe", "ok", 0.5)
	m.RecordStage("analyze", "error", 3.0)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.StagesTotal.WithLabelValues("transcribe", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StagesTotal.WithLabelValues("analyze", "error")))
}

func TestRecordChunkInaudible(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPipelineMetrics(reg)

	m.RecordChunk("ok")
	m.RecordChunk("inaudible")
	m.RecordChunk("inaudible")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.InaudibleChunksTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ChunksTranscribedTotal.WithLabelValues("inaudible")))
}

func TestRecordLLMCallTokens(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPipelineMetrics(reg)

	m.RecordLLMCall("analyze", "llama3-8b-8192", "ok", 2.1, 1200, 340)

	assert.Equal(t, float64(1200), testutil.ToFloat64(m.LLMTokensTotal.WithLabelValues("input", "llama3-8b-8192")))
	assert.Equal(t, float64(340), testutil.ToFloat64(m.LLMTokensTotal.WithLabelValues("output", "llama3-8b-8192")))
}

func TestRecordSnapshotFile(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPipelineMetrics(reg)

	m.RecordSnapshotFile("included", 2048)
	m.RecordSnapshotFile("excluded", 0)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.SnapshotFilesTotal.WithLabelValues("included")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SnapshotFilesTotal.WithLabelValues("excluded")))
	assert.Equal(t, float64(2048), testutil.ToFloat64(m.SnapshotFetchBytes))
}

func TestMetricsRegisterOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { NewPipelineMetrics(reg) })
	// Registering twice on the same registry would panic via promauto.
	require.Panics(t, func() { NewPipelineMetrics(reg) })
}

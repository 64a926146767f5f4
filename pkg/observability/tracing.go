package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the name of the tracer for recap pipeline operations.
const TracerName = "recap"

// Span attribute keys
const (
	AttrSessionID    = "session_id"
	AttrStage        = "stage"
	AttrMediaKind    = "media_kind"
	AttrRepository   = "repository"
	AttrModel        = "model"
	AttrDestination  = "destination"
	AttrRecoveryTier = "recovery_tier"
	AttrChunkCount   = "chunk_count"
	AttrDurationMs   = "duration_ms"
	AttrInputTokens  = "input_tokens"
	AttrOutputTokens = "output_tokens"
	AttrErrorType    = "error_type"
	AttrRetryable    = "retryable"
)

// Span names
const (
	SpanProcess      = "recap.process"
	SpanTranscribe   = "recap.stage.transcribe"
	SpanSnapshot     = "recap.stage.snapshot"
	SpanAnalyze      = "recap.stage.analyze"
	SpanDistribute   = "recap.stage.distribute"
	SpanLLMCall      = "recap.llm_call"
	SpanRecoverJSON  = "recap.recover_json"
	SpanChatTurn     = "recap.chat_turn"
)

// Tracer provides distributed tracing for pipeline operations.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new pipeline tracer.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(TracerName),
	}
}

// StartProcessSpan starts a root span for a full pipeline run.
func (t *Tracer) StartProcessSpan(ctx context.Context, sessionID, mediaKind string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanProcess,
		trace.WithAttributes(
			attribute.String(AttrSessionID, sessionID),
			attribute.String(AttrMediaKind, mediaKind),
		),
	)
}

// StartStageSpan starts a span for a named pipeline stage.
func (t *Tracer) StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, fmt.Sprintf("recap.stage.%s", stage),
		trace.WithAttributes(
			attribute.String(AttrStage, stage),
		),
	)
}

// StartLLMSpan starts a span for an LLM call.
func (t *Tracer) StartLLMSpan(ctx context.Context, model string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanLLMCall,
		trace.WithAttributes(
			attribute.String(AttrModel, model),
		),
	)
}

// StartDistributionSpan starts a span for a single destination delivery.
func (t *Tracer) StartDistributionSpan(ctx context.Context, destination string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, fmt.Sprintf("recap.distribute.%s", destination),
		trace.WithAttributes(
			attribute.String(AttrDestination, destination),
		),
	)
}

// SpanHelper provides convenient methods for working with the current span.
type SpanHelper struct {
	span trace.Span
}

// NewSpanHelper creates a new span helper for the given span.
func NewSpanHelper(span trace.Span) *SpanHelper {
	return &SpanHelper{span: span}
}

// SetRepository sets the repository attribute.
func (h *SpanHelper) SetRepository(repo string) {
	if repo != "" {
		h.span.SetAttributes(attribute.String(AttrRepository, repo))
	}
}

// SetRecoveryTier records which recovery tier produced the record.
func (h *SpanHelper) SetRecoveryTier(tier string) {
	h.span.SetAttributes(attribute.String(AttrRecoveryTier, tier))
}

// SetChunkCount sets the transcription chunk count.
func (h *SpanHelper) SetChunkCount(n int) {
	h.span.SetAttributes(attribute.Int(AttrChunkCount, n))
}

// SetDuration sets the duration attribute.
func (h *SpanHelper) SetDuration(durationMs int64) {
	h.span.SetAttributes(attribute.Int64(AttrDurationMs, durationMs))
}

// SetLLMResult sets LLM result attributes.
func (h *SpanHelper) SetLLMResult(inputTokens, outputTokens int, latencyMs int64) {
	h.span.SetAttributes(
		attribute.Int(AttrInputTokens, inputTokens),
		attribute.Int(AttrOutputTokens, outputTokens),
		attribute.Int64(AttrDurationMs, latencyMs),
	)
}

// SetError records an error on the span.
func (h *SpanHelper) SetError(err error, errorType string, retryable bool) {
	h.span.SetStatus(codes.Error, err.Error())
	h.span.SetAttributes(
		attribute.String(AttrErrorType, errorType),
		attribute.Bool(AttrRetryable, retryable),
	)
	h.span.RecordError(err)
}

// SetSuccess marks the span as successful.
func (h *SpanHelper) SetSuccess() {
	h.span.SetStatus(codes.Ok, "")
}

// AddEvent adds an event to the span.
func (h *SpanHelper) AddEvent(name string, attrs ...attribute.KeyValue) {
	h.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// GetTraceID returns the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}

// GetSpanID returns the span ID from the context.
func GetSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasSpanID() {
		return span.SpanContext().SpanID().String()
	}
	return ""
}

package analyze

import (
	"context"
	"fmt"
	"time"

	"github.com/otherjamesbrown/recap-cli/pkg/llm"
	"github.com/otherjamesbrown/recap-cli/pkg/logging"
	"github.com/otherjamesbrown/recap-cli/pkg/observability"
)

const (
	defaultMaxTokens   = 2000
	defaultTemperature = 0.5
)

// Analyzer runs meeting analysis through an LLM provider.
type Analyzer struct {
	provider           llm.Provider
	maxTokens          int
	maxTranscriptChars int
	temperature        float64
	metrics            *observability.PipelineMetrics
	logger             logging.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMaxTokens overrides the completion token budget.
func WithMaxTokens(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

// WithMaxTranscriptChars overrides how much transcript text is embedded in
// the prompt. Longer transcripts are prefix-trimmed to the budget.
func WithMaxTranscriptChars(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxTranscriptChars = n
		}
	}
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) Option {
	return func(a *Analyzer) { a.temperature = t }
}

// WithMetrics records an LLM call metric per analysis.
func WithMetrics(m *observability.PipelineMetrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(provider llm.Provider, logger logging.Logger, opts ...Option) *Analyzer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	a := &Analyzer{
		provider:           provider,
		maxTokens:          defaultMaxTokens,
		maxTranscriptChars: DefaultMaxTranscriptChars,
		temperature:        defaultTemperature,
		logger:             logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze sends the transcript (and optional repository file list) to the
// model and recovers a structured record from whatever comes back. A model
// response that is not valid JSON degrades rather than fails; only transport
// level errors are returned.
func (a *Analyzer) Analyze(ctx context.Context, transcript string, filePaths []string) (*Record, error) {
	embedded := TruncateTranscript(transcript, a.maxTranscriptChars)
	if len(embedded) < len(transcript) {
		a.logger.Warn("transcript exceeds prompt budget, trimming",
			logging.F("max_chars", a.maxTranscriptChars),
			logging.F("dropped_chars", len(transcript)-len(embedded)))
	}
	prompt := BuildAnalysisPrompt(embedded, filePaths)

	started := time.Now()
	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		Prompt:      prompt,
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	})
	if err != nil {
		if a.metrics != nil {
			a.metrics.RecordLLMCall("analyze", a.provider.Name(), "error",
				time.Since(started).Seconds(), 0, 0)
		}
		return nil, fmt.Errorf("analysis completion: %w", err)
	}
	if a.metrics != nil {
		a.metrics.RecordLLMCall("analyze", resp.Model, "ok",
			time.Since(started).Seconds(), resp.TokensUsed.Prompt, resp.TokensUsed.Completion)
	}

	rec := Recover(resp.Content)
	if rec.Degraded() {
		a.logger.Warn("model response was not parseable JSON, keeping raw text as summary",
			logging.F("model", resp.Model),
			logging.F("response_bytes", len(resp.Content)))
	} else {
		a.logger.Debug("analysis record recovered",
			logging.F("tier", rec.RecoveryTier),
			logging.F("action_items", len(rec.ActionItems)),
			logging.F("decisions", len(rec.Decisions)))
	}

	return rec, nil
}

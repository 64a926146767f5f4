// Package llm provides language model access for meeting analysis and chat.
// Providers speak the OpenAI-compatible chat completions API.
package llm

import (
	"context"
	"fmt"
)

// Error codes for LLM failures.
const (
	// ErrUnavailable indicates the service could not be reached or returned
	// a server error.
	ErrUnavailable = "unavailable"
	// ErrTimeout indicates the request exceeded its deadline.
	ErrTimeout = "timeout"
	// ErrAuth indicates the API key was rejected.
	ErrAuth = "auth"
	// ErrRateLimit indicates the service throttled the request.
	ErrRateLimit = "rate_limit"
	// ErrTokenLimit indicates the completion was truncated at max_tokens.
	ErrTokenLimit = "token_limit"
	// ErrParseFailure indicates the response could not be decoded.
	ErrParseFailure = "parse_failure"
)

// LLMError is a typed error from an LLM provider.
type LLMError struct {
	Code    string
	Message string
	Details string
}

// Error implements the error interface.
func (e *LLMError) Error() string {
	return fmt.Sprintf("llm %s: %s", e.Code, e.Message)
}

// IsRetryable reports whether the failure may succeed on retry.
func (e *LLMError) IsRetryable() bool {
	return e.Code == ErrUnavailable || e.Code == ErrRateLimit
}

// Provider defines the interface for LLM completion providers.
type Provider interface {
	// Name returns the provider identifier (e.g. "groq-llama3-8b-8192").
	Name() string

	// Complete sends a completion request and returns the raw response.
	// Structured output recovery is the caller's concern; Complete never
	// retries or reshapes the model output.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is currently reachable.
	IsAvailable(ctx context.Context) bool

	// Close releases provider resources.
	Close() error
}

// CompletionRequest represents a request to the LLM.
type CompletionRequest struct {
	// Prompt is the full prompt text to send to the LLM.
	Prompt string `json:"prompt"`

	// SystemPrompt is an optional system-level instruction.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// MaxTokens limits response length (0 = provider default).
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0 = provider default).
	Temperature float64 `json:"temperature,omitempty"`
}

// CompletionResponse represents a response from the LLM.
type CompletionResponse struct {
	// Content is the raw text response from the LLM.
	Content string `json:"content"`

	// TokensUsed tracks token consumption.
	TokensUsed TokenUsage `json:"tokens_used"`

	// LatencyMs is the response time in milliseconds.
	LatencyMs int `json:"latency_ms"`

	// Model is the actual model used (may differ from requested).
	Model string `json:"model"`

	// FinishReason indicates why the model stopped generating.
	// "stop" = natural end, "length" = hit max_tokens limit.
	FinishReason string `json:"finish_reason,omitempty"`
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

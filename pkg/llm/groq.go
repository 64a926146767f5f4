package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config holds settings for the Groq provider.
type Config struct {
	// BaseURL is the OpenAI-compatible API base URL
	// (e.g. "https://api.groq.com/openai/v1").
	BaseURL string

	// APIKey is the bearer token for authentication.
	APIKey string

	// Model is the model identifier for completion requests.
	Model string

	// Timeout bounds each HTTP request.
	Timeout time.Duration
}

// GroqProvider implements Provider for Groq's OpenAI-compatible API.
type GroqProvider struct {
	config     Config
	httpClient *http.Client
	name       string
}

// NewGroqProvider creates a new Groq provider.
func NewGroqProvider(config Config) *GroqProvider {
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Minute
	}
	return &GroqProvider{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		name: fmt.Sprintf("groq-%s", config.Model),
	}
}

// Name returns the provider identifier.
func (p *GroqProvider) Name() string {
	return p.name
}

// chatMessage represents a message in the chat conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the OpenAI-compatible chat completion request.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// chatChoice represents a completion choice.
type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// chatUsage represents token usage.
type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// chatResponse is the OpenAI-compatible chat completion response.
type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

// Complete sends a completion request and returns the raw response.
func (p *GroqProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	var messages []chatMessage
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{
			Role:    "system",
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, chatMessage{
		Role:    "user",
		Content: req.Prompt,
	})

	chatReq := chatRequest{
		Model:       p.config.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, &LLMError{Code: ErrParseFailure, Message: fmt.Sprintf("marshal request: %v", err)}
	}

	url := fmt.Sprintf("%s/chat/completions", p.config.BaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &LLMError{Code: ErrUnavailable, Message: fmt.Sprintf("create request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &LLMError{Code: ErrTimeout, Message: "request timeout"}
		}
		return nil, &LLMError{Code: ErrUnavailable, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &LLMError{Code: ErrParseFailure, Message: fmt.Sprintf("read response: %v", err)}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to parsing
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &LLMError{
			Code:    ErrAuth,
			Message: fmt.Sprintf("HTTP %d: invalid api key", resp.StatusCode),
			Details: string(respBody),
		}
	case http.StatusTooManyRequests:
		return nil, &LLMError{
			Code:    ErrRateLimit,
			Message: "HTTP 429: rate limit exceeded",
			Details: string(respBody),
		}
	default:
		return nil, &LLMError{
			Code:    ErrUnavailable,
			Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, &LLMError{Code: ErrParseFailure, Message: fmt.Sprintf("parse response: %v", err)}
	}

	if len(chatResp.Choices) == 0 {
		return nil, &LLMError{Code: ErrParseFailure, Message: "no choices in response"}
	}

	latency := time.Since(start)
	return &CompletionResponse{
		Content:      chatResp.Choices[0].Message.Content,
		FinishReason: chatResp.Choices[0].FinishReason,
		LatencyMs:    int(latency.Milliseconds()),
		Model:        chatResp.Model,
		TokensUsed: TokenUsage{
			Prompt:     chatResp.Usage.PromptTokens,
			Completion: chatResp.Usage.CompletionTokens,
			Total:      chatResp.Usage.TotalTokens,
		},
	}, nil
}

// IsAvailable checks if the provider is currently reachable.
func (p *GroqProvider) IsAvailable(ctx context.Context) bool {
	url := fmt.Sprintf("%s/models", p.config.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Close releases provider resources.
func (p *GroqProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

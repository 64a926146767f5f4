// Package chat answers follow-up questions about an analyzed meeting.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/otherjamesbrown/recap-cli/pkg/analyze"
	rcerrors "github.com/otherjamesbrown/recap-cli/pkg/errors"
	"github.com/otherjamesbrown/recap-cli/pkg/llm"
	"github.com/otherjamesbrown/recap-cli/pkg/logging"
)

// FallbackReply is shown when the model cannot be reached.
const FallbackReply = "Sorry, I couldn't process your request."

const defaultMaxTokens = 500

// Turn is one prior exchange carried into the prompt for context.
type Turn struct {
	Role    string
	Content string
}

// Responder answers questions grounded in a single analysis record.
type Responder struct {
	provider    llm.Provider
	maxTokens   int
	temperature float64
	logger      logging.Logger
}

// NewResponder creates a Responder. maxTokens <= 0 uses the default budget.
func NewResponder(provider llm.Provider, maxTokens int, logger logging.Logger) *Responder {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Responder{
		provider:    provider,
		maxTokens:   maxTokens,
		temperature: 0.5,
		logger:      logger,
	}
}

// Ask sends the question with the record and prior turns as context and
// returns the model's reply verbatim. The reply is free text; no structure
// is recovered.
func (r *Responder) Ask(ctx context.Context, rec *analyze.Record, history []Turn, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("%w: empty question", rcerrors.ErrValidation)
	}
	if rec == nil {
		return "", rcerrors.ErrNoRecord
	}

	prompt, err := BuildChatPrompt(rec, history, query)
	if err != nil {
		return "", err
	}

	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		Prompt:      prompt,
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	r.logger.Debug("chat turn answered",
		logging.F("model", resp.Model),
		logging.F("reply_bytes", len(resp.Content)))

	return strings.TrimSpace(resp.Content), nil
}

// BuildChatPrompt renders the chat prompt with the record serialized as
// indented JSON context, followed by the prior turns when there are any.
func BuildChatPrompt(rec *analyze.Record, history []Turn, query string) (string, error) {
	contextJSON, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing record context: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Based on this meeting summary:\n%s\n", contextJSON)
	if len(history) > 0 {
		b.WriteString("\nPrevious conversation:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
		}
	}
	fmt.Fprintf(&b, "\nAnswer this question: %s", query)
	return b.String(), nil
}

package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/recap-cli/pkg/analyze"
	rcerrors "github.com/otherjamesbrown/recap-cli/pkg/errors"
	"github.com/otherjamesbrown/recap-cli/pkg/llm"
)

type fakeProvider struct {
	content string
	err     error
	lastReq llm.CompletionRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.content, Model: "fake-model"}, nil
}

func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return true }
func (f *fakeProvider) Close() error                         { return nil }

func sampleRecord() *analyze.Record {
	rec := &analyze.Record{
		Summary:     "Discussed refactoring db.py.",
		ActionItems: []analyze.ActionItem{{Task: "Add caching", Assignee: "Alice Smith"}},
		Decisions:   []string{"Use Redis."},
	}
	rec.Normalize()
	return rec
}

func TestAskAnswersFromRecord(t *testing.T) {
	fp := &fakeProvider{content: "  Alice Smith owns the caching work.\n"}
	r := NewResponder(fp, 0, nil)

	reply, err := r.Ask(context.Background(), sampleRecord(), nil, "Who is adding caching?")
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith owns the caching work.", reply)

	assert.Contains(t, fp.lastReq.Prompt, "Based on this meeting summary:")
	assert.Contains(t, fp.lastReq.Prompt, `"summary": "Discussed refactoring db.py."`)
	assert.Contains(t, fp.lastReq.Prompt, "Answer this question: Who is adding caching?")
	assert.NotContains(t, fp.lastReq.Prompt, "Previous conversation:")
	assert.Equal(t, 500, fp.lastReq.MaxTokens)
	assert.Equal(t, 0.5, fp.lastReq.Temperature)
}

func TestAskEmbedsHistory(t *testing.T) {
	fp := &fakeProvider{content: "Redis, per the earlier answer."}
	r := NewResponder(fp, 0, nil)

	history := []Turn{
		{Role: "user", Content: "Who is adding caching?"},
		{Role: "assistant", Content: "Alice Smith owns the caching work."},
	}
	_, err := r.Ask(context.Background(), sampleRecord(), history, "Which store did we pick?")
	require.NoError(t, err)

	assert.Contains(t, fp.lastReq.Prompt, "Previous conversation:\nuser: Who is adding caching?\nassistant: Alice Smith owns the caching work.\n")
	assert.Contains(t, fp.lastReq.Prompt, "Answer this question: Which store did we pick?")
}

func TestAskEmptyQuestion(t *testing.T) {
	r := NewResponder(&fakeProvider{}, 0, nil)
	_, err := r.Ask(context.Background(), sampleRecord(), nil, "   ")
	assert.ErrorIs(t, err, rcerrors.ErrValidation)
}

func TestAskNilRecord(t *testing.T) {
	r := NewResponder(&fakeProvider{}, 0, nil)
	_, err := r.Ask(context.Background(), nil, nil, "anything?")
	assert.ErrorIs(t, err, rcerrors.ErrNoRecord)
}

func TestAskProviderFailure(t *testing.T) {
	fp := &fakeProvider{err: &llm.LLMError{Code: llm.ErrUnavailable, Message: "down"}}
	r := NewResponder(fp, 0, nil)

	_, err := r.Ask(context.Background(), sampleRecord(), nil, "anything?")
	require.Error(t, err)

	var llmErr *llm.LLMError
	assert.ErrorAs(t, err, &llmErr)
}

func TestAskCustomTokenBudget(t *testing.T) {
	fp := &fakeProvider{content: "ok"}
	r := NewResponder(fp, 128, nil)

	_, err := r.Ask(context.Background(), sampleRecord(), nil, "anything?")
	require.NoError(t, err)
	assert.Equal(t, 128, fp.lastReq.MaxTokens)
}

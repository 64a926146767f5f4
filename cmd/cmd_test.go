package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/recap-cli/config"
	"github.com/otherjamesbrown/recap-cli/pkg/analyze"
	"github.com/otherjamesbrown/recap-cli/pkg/chat"
	"github.com/otherjamesbrown/recap-cli/pkg/distribute"
	"github.com/otherjamesbrown/recap-cli/pkg/llm"
	"github.com/otherjamesbrown/recap-cli/pkg/logging"
	"github.com/otherjamesbrown/recap-cli/pkg/session"
)

// fakeProvider returns a canned completion.
type fakeProvider struct {
	content string
	err     error
	lastReq llm.CompletionRequest
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.lastReq = req
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{Content: p.content}, nil
}

func (p *fakeProvider) IsAvailable(ctx context.Context) bool { return p.err == nil }
func (p *fakeProvider) Close() error                         { return nil }

func testDeps(t *testing.T) *Deps {
	t.Helper()
	store, err := session.NewStore(t.TempDir())
	require.NoError(t, err)
	return &Deps{
		Config:  config.DefaultConfig(),
		Logger:  logging.NewLogger(&logging.Config{Level: logging.LevelError, ServiceName: "test"}),
		Session: store,
	}
}

func TestEnsureWiresMetrics(t *testing.T) {
	deps := testDeps(t)
	require.NoError(t, deps.ensure())
	assert.NotNil(t, deps.Metrics)

	// A second Deps shares the process-wide collectors.
	other := testDeps(t)
	require.NoError(t, other.ensure())
	assert.Same(t, deps.Metrics, other.Metrics)
}

func TestSplitTargets(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "single", input: "github", want: []string{"github"}},
		{name: "multiple", input: "github,asana,mail", want: []string{"github", "asana", "mail"}},
		{name: "whitespace", input: " github , mail ", want: []string{"github", "mail"}},
		{name: "empty segments", input: "github,,mail,", want: []string{"github", "mail"}},
		{name: "empty", input: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitTargets(tt.input))
		})
	}
}

func TestPrintRecord(t *testing.T) {
	rec := &analyze.Record{
		Summary: "Reviewed the caching design.",
		ActionItems: []analyze.ActionItem{
			{Task: "Add Redis cache", Assignee: "Alice"},
			{Task: "Write benchmarks"},
		},
		CodeFeedback: map[string]string{
			"web.js": "needs debouncing",
			"api.go": "missing timeout",
		},
		Decisions: []string{"Use Redis"},
	}

	var buf bytes.Buffer
	printRecord(&buf, rec)
	out := buf.String()

	assert.Contains(t, out, "Reviewed the caching design.")
	assert.Contains(t, out, "- Add Redis cache (Assignee: Alice)")
	assert.Contains(t, out, "- Write benchmarks (Assignee: N/A)")
	assert.Contains(t, out, "Use Redis")
	assert.NotContains(t, out, "Note:")

	// Feedback paths render sorted.
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("api.go")), bytes.Index(buf.Bytes(), []byte("web.js")))
}

func TestPrintRecordDegraded(t *testing.T) {
	rec := &analyze.Record{Summary: "raw model text", RecoveryTier: analyze.TierDegraded}

	var buf bytes.Buffer
	printRecord(&buf, rec)

	assert.Contains(t, buf.String(), "was not structured")
}

func TestPrintOutcome(t *testing.T) {
	outcome := &distribute.Outcome{
		Results: []distribute.Result{
			{Destination: "github", Created: 2, Detail: "issues in octocat/hello-world"},
			{Destination: "mail", Created: 1},
		},
		Failures: []distribute.Failure{
			{Destination: "asana", Error: "llm auth: bad token"},
		},
	}

	var buf bytes.Buffer
	printOutcome(&buf, outcome)
	out := buf.String()

	assert.Contains(t, out, "github: delivered 2 item(s) (issues in octocat/hello-world)")
	assert.Contains(t, out, "mail: delivered 1 item(s)")
	assert.Contains(t, out, "asana: FAILED: llm auth: bad token")
}

func TestWriteResultFormats(t *testing.T) {
	payload := map[string]string{"summary": "short"}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		err := writeResult(&buf, config.OutputFormatJSON, payload, nil)
		require.NoError(t, err)
		assert.JSONEq(t, `{"summary":"short"}`, buf.String())
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		err := writeResult(&buf, config.OutputFormatYAML, payload, nil)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "summary: short")
	})

	t.Run("text uses callback", func(t *testing.T) {
		var buf bytes.Buffer
		err := writeResult(&buf, config.OutputFormatText, payload, func(w io.Writer) error {
			_, err := w.Write([]byte("human readable"))
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, "human readable", buf.String())
	})
}

func TestAdaptersRejectsUnknownDestination(t *testing.T) {
	deps := testDeps(t)

	_, err := deps.adapters([]string{"slack"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown destination "slack"`)
	assert.Contains(t, err.Error(), "github, asana, mail")
}

func TestAdaptersGitHubRequiresRepository(t *testing.T) {
	deps := testDeps(t)

	_, err := deps.adapters([]string{"github"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "github.repository")
}

func TestAdaptersMailRequiresConfig(t *testing.T) {
	deps := testDeps(t)

	_, err := deps.adapters([]string{"mail"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mail is not configured")
}

func TestAnalyzeCommandFromFile(t *testing.T) {
	deps := testDeps(t)
	deps.Provider = &fakeProvider{
		content: `{"summary": "Planned the migration.", "action_items": [{"task": "Draft schema", "assignee": "Bob"}], "code_feedback": {}, "decisions": ["Migrate in June"]}`,
	}

	path := filepath.Join(t.TempDir(), "meeting.txt")
	require.NoError(t, os.WriteFile(path, []byte("Alice: let's plan the migration.\nBob: I'll draft the schema."), 0o644))

	cmd := NewAnalyzeCommand(deps)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Planned the migration.")
	assert.Contains(t, buf.String(), "Draft schema (Assignee: Bob)")

	// The result is stored for follow-up commands.
	rec, err := deps.Session.Record()
	require.NoError(t, err)
	assert.Equal(t, "Planned the migration.", rec.Summary)
	assert.Equal(t, "Alice: let's plan the migration.\nBob: I'll draft the schema.", deps.Session.ExtractedText())
}

func TestAnalyzeCommandWithoutTranscript(t *testing.T) {
	deps := testDeps(t)
	deps.Provider = &fakeProvider{content: "{}"}

	cmd := NewAnalyzeCommand(deps)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no stored transcript")
}

func TestChangesCommandEmpty(t *testing.T) {
	deps := testDeps(t)
	_, err := deps.Session.SetResult("meeting.txt", "text", &analyze.Record{Summary: "nothing actionable"})
	require.NoError(t, err)

	cmd := NewChangesCommand(deps)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "No suggested changes")
}

func TestChangesCommandListsProposals(t *testing.T) {
	deps := testDeps(t)
	rec := &analyze.Record{
		Summary: "Review",
		CodeFeedback: map[string]string{
			"db.py": "Add an index:\n```python\nCREATE INDEX idx ON users(id)\n```",
		},
	}
	_, err := deps.Session.SetResult("meeting.txt", "text", rec)
	require.NoError(t, err)

	cmd := NewChangesCommand(deps)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "1. db.py")
	assert.Contains(t, out, "CREATE INDEX idx ON users(id)")
	assert.Contains(t, out, "```python")
}

func TestArchiveCommand(t *testing.T) {
	deps := testDeps(t)
	_, err := deps.Session.SetResult("standup.mp4", "text", &analyze.Record{Summary: "Daily standup notes"})
	require.NoError(t, err)

	cmd := NewArchiveCommand(deps)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "standup.mp4")
	assert.Contains(t, buf.String(), "Daily standup notes")
}

func TestArchiveCommandEmpty(t *testing.T) {
	deps := testDeps(t)

	cmd := NewArchiveCommand(deps)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "No analyzed meetings yet")
}

func TestChatTurnFallsBackOnProviderFailure(t *testing.T) {
	deps := testDeps(t)
	rec := &analyze.Record{Summary: "Sprint review"}
	_, err := deps.Session.SetResult("meeting.txt", "text", rec)
	require.NoError(t, err)

	provider := &fakeProvider{err: &llm.LLMError{Code: llm.ErrUnavailable, Message: "down"}}
	responder := chat.NewResponder(provider, 500, deps.Logger)

	cmd := NewChatCommand(deps)
	cmd.SetContext(context.Background())
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	require.NoError(t, chatTurn(cmd, deps, responder, deps.Session, rec, "what happened?"))
	assert.Contains(t, buf.String(), chat.FallbackReply)

	// Both sides of the turn land in the history.
	history := deps.Session.History()
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "what happened?", history[0].Content)
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, chat.FallbackReply, history[1].Content)
}

func TestChatCommandOneShot(t *testing.T) {
	deps := testDeps(t)
	deps.Provider = &fakeProvider{content: "Alice owns the caching work."}
	_, err := deps.Session.SetResult("meeting.txt", "text", &analyze.Record{Summary: "Sprint review"})
	require.NoError(t, err)

	cmd := NewChatCommand(deps)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"who owns caching?"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Alice owns the caching work.")
}

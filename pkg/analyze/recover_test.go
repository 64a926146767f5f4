package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cleanJSON = `{
  "summary": "Discussed refactoring db.py.",
  "action_items": [{"task": "Add caching", "assignee": "Alice Smith"}],
  "code_feedback": {"db.py": "Connection pooling is missing."},
  "decisions": ["Use Redis."]
}`

func TestRecoverDirect(t *testing.T) {
	rec := Recover(cleanJSON)

	assert.Equal(t, TierDirect, rec.RecoveryTier)
	assert.Equal(t, "Discussed refactoring db.py.", rec.Summary)
	require.Len(t, rec.ActionItems, 1)
	assert.Equal(t, "Add caching", rec.ActionItems[0].Task)
	assert.Equal(t, "Alice Smith", rec.ActionItems[0].Assignee)
	assert.Equal(t, "Connection pooling is missing.", rec.CodeFeedback["db.py"])
	assert.Equal(t, []string{"Use Redis."}, rec.Decisions)
}

func TestRecoverExtractedFromFence(t *testing.T) {
	raw := "Here is the analysis you asked for:\n\n```json\n" + cleanJSON + "\n```\n\nLet me know if you need more."

	rec := Recover(raw)
	assert.Equal(t, TierExtracted, rec.RecoveryTier)
	assert.Equal(t, "Discussed refactoring db.py.", rec.Summary)
	assert.Equal(t, []string{"Use Redis."}, rec.Decisions)
}

func TestRecoverExtractedFromProse(t *testing.T) {
	raw := "Sure! " + cleanJSON + " Hope that helps."

	rec := Recover(raw)
	assert.Equal(t, TierExtracted, rec.RecoveryTier)
	require.Len(t, rec.ActionItems, 1)
}

func TestRecoverDegraded(t *testing.T) {
	raw := "The meeting was mostly about refactoring db.py and adding caching."

	rec := Recover(raw)
	assert.Equal(t, TierDegraded, rec.RecoveryTier)
	assert.True(t, rec.Degraded())
	assert.Equal(t, raw, rec.Summary)
	assert.Empty(t, rec.ActionItems)
	assert.NotNil(t, rec.CodeFeedback)
	assert.Empty(t, rec.Decisions)
}

func TestRecoverDegradedOnBrokenJSON(t *testing.T) {
	raw := `{"summary": "truncated...`

	rec := Recover(raw)
	assert.Equal(t, TierDegraded, rec.RecoveryTier)
	assert.Equal(t, raw, rec.Summary)
}

func TestRecoverDegradedPreservesRawText(t *testing.T) {
	raw := "  The notes arrived half-formatted.\n\twith odd whitespace  \n"

	rec := Recover(raw)
	assert.Equal(t, TierDegraded, rec.RecoveryTier)
	assert.Equal(t, raw, rec.Summary)
}

func TestRecoverNormalizesMissingFields(t *testing.T) {
	rec := Recover(`{"summary": "Short meeting."}`)

	assert.Equal(t, TierDirect, rec.RecoveryTier)
	assert.NotNil(t, rec.ActionItems)
	assert.NotNil(t, rec.CodeFeedback)
	assert.NotNil(t, rec.Decisions)
}

package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/recap-cli/pkg/analyze"
	rcerrors "github.com/otherjamesbrown/recap-cli/pkg/errors"
)

func newRecord(summary string) *analyze.Record {
	rec := &analyze.Record{Summary: summary}
	rec.Normalize()
	return rec
}

func TestStoreEmpty(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Record()
	assert.ErrorIs(t, err, rcerrors.ErrNoRecord)
	assert.Empty(t, s.ExtractedText())
	assert.Empty(t, s.History())
	assert.Empty(t, s.Archive())
}

func TestSetResultAndReload(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	entry, err := s.SetResult("meeting.txt", "We should refactor db.py.", newRecord("Refactor discussion."))
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "meeting.txt", entry.Source)

	// A fresh store sees the persisted state.
	reloaded, err := NewStore(dir)
	require.NoError(t, err)

	rec, err := reloaded.Record()
	require.NoError(t, err)
	assert.Equal(t, "Refactor discussion.", rec.Summary)
	assert.Equal(t, "We should refactor db.py.", reloaded.ExtractedText())
	require.Len(t, reloaded.Archive(), 1)
	assert.Equal(t, entry.ID, reloaded.Archive()[0].ID)
}

func TestSetResultArchivesEveryRun(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	first, err := s.SetResult("a.txt", "first", newRecord("First."))
	require.NoError(t, err)
	second, err := s.SetResult("b.txt", "second", newRecord("Second."))
	require.NoError(t, err)

	archive := s.Archive()
	require.Len(t, archive, 2)
	assert.Equal(t, first.ID, archive[0].ID)
	assert.Equal(t, second.ID, archive[1].ID)
	assert.NotEqual(t, first.ID, second.ID)

	// The live record is the latest run.
	rec, err := s.Record()
	require.NoError(t, err)
	assert.Equal(t, "Second.", rec.Summary)
}

func TestSetResultResetsChatHistory(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.SetResult("a.txt", "text", newRecord("First."))
	require.NoError(t, err)
	require.NoError(t, s.AppendTurn("user", "Who owns caching?"))
	require.NoError(t, s.AppendTurn("assistant", "Alice Smith."))
	require.Len(t, s.History(), 2)

	_, err = s.SetResult("b.txt", "text", newRecord("Second."))
	require.NoError(t, err)
	assert.Empty(t, s.History())
}

func TestAppendTurnPersists(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.AppendTurn("user", "hello"))

	reloaded, err := NewStore(dir)
	require.NoError(t, err)
	turns := reloaded.History()
	require.Len(t, turns, 1)
	assert.Equal(t, "user", turns[0].Role)
	assert.Equal(t, "hello", turns[0].Content)
	assert.False(t, turns[0].At.IsZero())
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	_, err = s.SetResult("a.txt", "text", newRecord("First."))
	require.NoError(t, err)
	require.NoError(t, s.Clear())

	_, err = s.Record()
	assert.ErrorIs(t, err, rcerrors.ErrNoRecord)

	_, err = os.Stat(filepath.Join(dir, stateFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestStateFilePermissions(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	_, err = s.SetResult("a.txt", "text", newRecord("First."))
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, stateFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

// Package session persists pipeline state between command invocations: the
// extracted transcript, the latest analysis record, the chat history, and an
// archive of every completed run.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/otherjamesbrown/recap-cli/pkg/analyze"
	rcerrors "github.com/otherjamesbrown/recap-cli/pkg/errors"
)

const stateFileName = "session.json"

// Turn is one exchange in the follow-up chat.
type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// ArchiveEntry is one completed pipeline run.
type ArchiveEntry struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	CompletedAt time.Time       `json:"completed_at"`
	Record      *analyze.Record `json:"record"`
}

// state is the on-disk shape.
type state struct {
	ExtractedText string          `json:"extracted_text,omitempty"`
	Record        *analyze.Record `json:"record,omitempty"`
	ChatHistory   []Turn          `json:"chat_history,omitempty"`
	Archive       []ArchiveEntry  `json:"archive,omitempty"`
}

// Store guards session state and writes it through to disk on every change.
type Store struct {
	mu    sync.RWMutex
	path  string
	state state
}

// NewStore opens (or initializes) the session store under dir.
func NewStore(dir string) (*Store, error) {
	s := &Store{path: filepath.Join(dir, stateFileName)}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session state: %w", err)
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("parsing session state: %w", err)
	}
	return s, nil
}

// SetResult swaps in the result of a completed run and archives it. The chat
// history resets because it referred to the previous record.
func (s *Store) SetResult(source, extractedText string, rec *analyze.Record) (ArchiveEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := ArchiveEntry{
		ID:          uuid.NewString(),
		Source:      source,
		CompletedAt: time.Now().UTC(),
		Record:      rec,
	}

	s.state.ExtractedText = extractedText
	s.state.Record = rec
	s.state.ChatHistory = nil
	s.state.Archive = append(s.state.Archive, entry)

	if err := s.saveLocked(); err != nil {
		return ArchiveEntry{}, err
	}
	return entry, nil
}

// Record returns the latest analysis record, or ErrNoRecord when no run has
// completed yet.
func (s *Store) Record() (*analyze.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Record == nil {
		return nil, rcerrors.ErrNoRecord
	}
	return s.state.Record, nil
}

// ExtractedText returns the transcript text of the latest run.
func (s *Store) ExtractedText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ExtractedText
}

// AppendTurn records one chat exchange.
func (s *Store) AppendTurn(role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.ChatHistory = append(s.state.ChatHistory, Turn{
		Role:    role,
		Content: content,
		At:      time.Now().UTC(),
	})
	return s.saveLocked()
}

// History returns a copy of the chat history.
func (s *Store) History() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Turn(nil), s.state.ChatHistory...)
}

// Archive returns a copy of the run archive, oldest first.
func (s *Store) Archive() []ArchiveEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ArchiveEntry(nil), s.state.Archive...)
}

// Clear wipes all session state, including the archive.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state{}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session state: %w", err)
	}
	return nil
}

func (s *Store) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing session state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("writing session state: %w", err)
	}
	return nil
}

package analyze

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultMaxTranscriptChars bounds how much transcript text is embedded in
// the analysis prompt.
const DefaultMaxTranscriptChars = 24000

const analysisPromptTemplate = `Analyze this code review meeting transcript:
%s

GitHub files: %s

Provide:
1. A summary
2. Action items (task, assignee)
3. Code feedback (file, feedback)
4. Decisions

Return JSON:
{
    "summary": "...",
    "action_items": [{"task": "...", "assignee": "..."}],
    "code_feedback": {"file_path": "feedback"},
    "decisions": ["..."]
}`

// BuildAnalysisPrompt renders the analysis prompt for a transcript and an
// optional list of repository file paths.
func BuildAnalysisPrompt(transcript string, filePaths []string) string {
	fileList := "No files provided."
	if len(filePaths) > 0 {
		fileList = strings.Join(filePaths, "\n")
	}
	return fmt.Sprintf(analysisPromptTemplate, transcript, fileList)
}

// TruncateTranscript prefix-trims the transcript to at most maxChars bytes.
// The cut never splits a UTF-8 sequence, so the result is always a valid
// prefix of the input. maxChars <= 0 disables the budget.
func TruncateTranscript(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	cut := maxChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

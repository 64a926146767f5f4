package analyze

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var codeBlockRegex = regexp.MustCompile("(?s)```(?:\\w*)\\n(.*?)\\n```")

// actionKeywords mark action item tasks that imply a concrete code change.
var actionKeywords = []string{"add", "change", "modify", "implement", "fix"}

// SuggestedChange is a concrete change proposal derived from a record.
type SuggestedChange struct {
	FilePath    string `json:"file"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description"`
	Language    string `json:"language,omitempty"`
}

// ExtractSuggestedChanges derives change proposals from a record. Fenced code
// blocks inside per-file feedback come first, in sorted file order; action
// items that name a file and use a change keyword follow, without code.
func ExtractSuggestedChanges(rec *Record) []SuggestedChange {
	var changes []SuggestedChange

	paths := make([]string, 0, len(rec.CodeFeedback))
	for path := range rec.CodeFeedback {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		feedback := rec.CodeFeedback[path]
		for _, m := range codeBlockRegex.FindAllStringSubmatch(feedback, -1) {
			code := m[1]
			if strings.TrimSpace(code) == "" {
				continue
			}
			changes = append(changes, SuggestedChange{
				FilePath:    path,
				Code:        code,
				Description: fmt.Sprintf("Suggested change from code review: %s.", firstSentence(feedback)),
				Language:    LanguageForFile(path),
			})
		}
	}

	for _, item := range rec.ActionItems {
		if item.File == "" || item.Task == "" {
			continue
		}
		if !hasActionKeyword(item.Task) {
			continue
		}
		changes = append(changes, SuggestedChange{
			FilePath:    item.File,
			Description: fmt.Sprintf("Action item: %s (Assigned to: %s)", item.Task, item.Assignee),
			Language:    LanguageForFile(item.File),
		})
	}

	return changes
}

func firstSentence(s string) string {
	if idx := strings.Index(s, "."); idx >= 0 {
		return s[:idx]
	}
	return s
}

func hasActionKeyword(task string) bool {
	lower := strings.ToLower(task)
	for _, kw := range actionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

var languageByExtension = map[string]string{
	"py":    "python",
	"js":    "javascript",
	"ts":    "typescript",
	"html":  "html",
	"css":   "css",
	"java":  "java",
	"cpp":   "cpp",
	"c":     "c",
	"cs":    "csharp",
	"go":    "go",
	"rb":    "ruby",
	"php":   "php",
	"swift": "swift",
	"kt":    "kotlin",
	"md":    "markdown",
}

// LanguageForFile maps a file path to a syntax highlighting language.
func LanguageForFile(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 || idx == len(path)-1 {
		return "text"
	}
	if lang, ok := languageByExtension[strings.ToLower(path[idx+1:])]; ok {
		return lang
	}
	return "text"
}

package analyze

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedJSONRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// Recover converts a raw model response into a Record with best effort:
//
//  1. direct: the response is clean JSON
//  2. extracted: a JSON object is buried in prose or a code fence
//  3. degraded: nothing parses, the whole response becomes the summary
//
// Recovery never fails; the tier tells the caller how much structure
// survived.
func Recover(raw string) *Record {
	trimmed := strings.TrimSpace(raw)

	if rec := tryUnmarshal(trimmed); rec != nil {
		rec.RecoveryTier = TierDirect
		return rec
	}

	if candidate := extractJSONObject(trimmed); candidate != "" {
		if rec := tryUnmarshal(candidate); rec != nil {
			rec.RecoveryTier = TierExtracted
			return rec
		}
	}

	// The degraded summary keeps the raw response byte for byte; trimming
	// would lose part of the only structure the caller has left.
	return &Record{
		Summary:      raw,
		ActionItems:  []ActionItem{},
		CodeFeedback: map[string]string{},
		Decisions:    []string{},
		RecoveryTier: TierDegraded,
	}
}

func tryUnmarshal(candidate string) *Record {
	if !strings.HasPrefix(candidate, "{") {
		return nil
	}
	var rec Record
	if err := json.Unmarshal([]byte(candidate), &rec); err != nil {
		return nil
	}
	rec.Normalize()
	return &rec
}

// extractJSONObject pulls the most plausible JSON object out of a response
// that wraps it in prose or markdown. Code fences win; otherwise the span
// from the first '{' to the last '}' is used.
func extractJSONObject(s string) string {
	if m := fencedJSONRegex.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return strings.TrimSpace(s[start : end+1])
}

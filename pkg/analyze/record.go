// Package analyze turns meeting transcripts into structured analysis records
// via an LLM, with tiered recovery for responses that are not clean JSON.
package analyze

import "strings"

// Recovery tiers, from best to worst.
const (
	TierDirect    = "direct"
	TierExtracted = "extracted"
	TierDegraded  = "degraded"
)

// ActionItem is one task surfaced by the analysis.
type ActionItem struct {
	Task     string `json:"task"`
	Assignee string `json:"assignee,omitempty"`
	File     string `json:"file,omitempty"`
}

// Record is the structured result of analyzing a meeting.
type Record struct {
	Summary      string            `json:"summary"`
	ActionItems  []ActionItem      `json:"action_items"`
	CodeFeedback map[string]string `json:"code_feedback"`
	Decisions    []string          `json:"decisions"`

	// RecoveryTier records how the record was obtained from the raw
	// model response.
	RecoveryTier string `json:"recovery_tier,omitempty"`
}

// Normalize replaces nil collections with empty ones and trims the summary,
// so downstream consumers never see null fields.
func (r *Record) Normalize() {
	r.Summary = strings.TrimSpace(r.Summary)
	if r.ActionItems == nil {
		r.ActionItems = []ActionItem{}
	}
	if r.CodeFeedback == nil {
		r.CodeFeedback = map[string]string{}
	}
	if r.Decisions == nil {
		r.Decisions = []string{}
	}
}

// Degraded reports whether the record fell back to the raw-summary tier.
func (r *Record) Degraded() bool {
	return r.RecoveryTier == TierDegraded
}

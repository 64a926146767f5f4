package cmd

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/otherjamesbrown/recap-cli/pkg/analyze"
)

const timeRounding = 10 * time.Millisecond

// printRecord renders an analysis record for human consumption.
func printRecord(w io.Writer, rec *analyze.Record) {
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  %s\n", rec.Summary)

	if len(rec.ActionItems) > 0 {
		fmt.Fprintln(w, "\nAction Items:")
		for _, item := range rec.ActionItems {
			assignee := item.Assignee
			if assignee == "" {
				assignee = "N/A"
			}
			fmt.Fprintf(w, "  - %s (Assignee: %s)\n", item.Task, assignee)
		}
	}

	if len(rec.CodeFeedback) > 0 {
		fmt.Fprintln(w, "\nCode Feedback:")
		for _, path := range sortedKeys(rec.CodeFeedback) {
			fmt.Fprintf(w, "  %s: %s\n", path, rec.CodeFeedback[path])
		}
	}

	if len(rec.Decisions) > 0 {
		fmt.Fprintln(w, "\nDecisions:")
		for _, decision := range rec.Decisions {
			fmt.Fprintf(w, "  - %s\n", decision)
		}
	}

	if rec.Degraded() {
		fmt.Fprintln(w, "\nNote: the model response was not structured; only a raw summary is available.")
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

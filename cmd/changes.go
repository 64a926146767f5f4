package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/recap-cli/pkg/analyze"
)

// NewChangesCommand creates the 'changes' command.
func NewChangesCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = &Deps{}
	}

	return &cobra.Command{
		Use:   "changes",
		Short: "List code changes suggested by the latest analysis",
		Long: `Derive concrete change proposals from the latest analysis record.

Fenced code blocks in per-file feedback become change proposals with code;
action items that name a file and imply a change (add, fix, implement, ...)
become proposals without code.

Examples:
  recap changes
  recap changes --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChanges(cmd, deps)
		},
	}
}

func runChanges(cmd *cobra.Command, deps *Deps) error {
	if err := deps.ensure(); err != nil {
		return err
	}

	store, err := deps.sessionStore()
	if err != nil {
		return err
	}
	rec, err := store.Record()
	if err != nil {
		return err
	}

	changes := analyze.ExtractSuggestedChanges(rec)

	return writeResult(cmd.OutOrStdout(), deps.Config.OutputFormat, changes, func(w io.Writer) error {
		if len(changes) == 0 {
			fmt.Fprintln(w, "No suggested changes in the latest analysis.")
			return nil
		}
		for i, change := range changes {
			fmt.Fprintf(w, "%d. %s\n   %s\n", i+1, change.FilePath, change.Description)
			if change.Code != "" {
				fmt.Fprintf(w, "   ```%s\n", change.Language)
				fmt.Fprintf(w, "   %s\n", change.Code)
				fmt.Fprintln(w, "   ```")
			}
		}
		return nil
	})
}

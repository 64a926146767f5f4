package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var archiveClear bool

// NewArchiveCommand creates the 'archive' command.
func NewArchiveCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = &Deps{}
	}

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "List previously analyzed meetings",
		Long: `List every completed pipeline run recorded in the local session,
oldest first. Use --clear to wipe the session, including the archive,
the latest analysis, and the chat history.

Examples:
  recap archive
  recap archive --output json
  recap archive --clear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchive(cmd, deps)
		},
	}

	cmd.Flags().BoolVar(&archiveClear, "clear", false, "Delete all session state")
	return cmd
}

func runArchive(cmd *cobra.Command, deps *Deps) error {
	if err := deps.ensure(); err != nil {
		return err
	}

	store, err := deps.sessionStore()
	if err != nil {
		return err
	}

	if archiveClear {
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Session cleared.")
		return nil
	}

	entries := store.Archive()

	return writeResult(cmd.OutOrStdout(), deps.Config.OutputFormat, entries, func(w io.Writer) error {
		if len(entries) == 0 {
			fmt.Fprintln(w, "No analyzed meetings yet. Run 'recap process <path>' first.")
			return nil
		}
		for _, entry := range entries {
			summary := ""
			if entry.Record != nil {
				summary = entry.Record.Summary
			}
			if len(summary) > 70 {
				summary = summary[:67] + "..."
			}
			fmt.Fprintf(w, "%s  %s  %s\n", entry.CompletedAt.Format("2006-01-02 15:04"), entry.Source, summary)
		}
		return nil
	})
}

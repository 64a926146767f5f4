package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/recap-cli/pkg/repo"
)

var fetchBranch string

// NewFetchCommand creates the 'fetch' command.
func NewFetchCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = &Deps{}
	}

	cmd := &cobra.Command{
		Use:   "fetch <repository>",
		Short: "Fetch a repository snapshot and list its files",
		Long: `Fetch a repository snapshot through the GitHub contents API.

Build artifacts, dependency directories, and binary assets are excluded by
the configured denylist. Snapshots are cached in-process per branch.

Examples:
  recap fetch octocat/hello-world
  recap fetch https://github.com/octocat/hello-world --branch develop`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, deps, args[0])
		},
	}

	cmd.Flags().StringVarP(&fetchBranch, "branch", "b", "", "Branch to snapshot (default: main)")

	return cmd
}

func runFetch(cmd *cobra.Command, deps *Deps, locatorRaw string) error {
	if err := deps.ensure(); err != nil {
		return err
	}

	loc, err := repo.ParseLocator(locatorRaw)
	if err != nil {
		return err
	}

	fetcher, err := deps.snapshotFetcher()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), deps.commandTimeout())
	defer cancel()

	snap, err := fetcher.Fetch(ctx, loc, fetchBranch)
	if err != nil {
		return err
	}

	return writeResult(cmd.OutOrStdout(), deps.Config.OutputFormat, snap, func(w io.Writer) error {
		fmt.Fprintf(w, "%s@%s: %d files (%d bytes, %d skipped)\n\n",
			snap.Repository, snap.Branch, len(snap.Files), snap.TotalBytes, snap.Skipped)
		for _, path := range snap.FileList() {
			fmt.Fprintf(w, "  %s\n", path)
		}
		return nil
	})
}

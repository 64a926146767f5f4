package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/recap-cli/pkg/pipeline"
)

// Process command flags.
var (
	processRepo       string
	processBranch     string
	processDistribute string
	processMaxChars   int
)

// NewProcessCommand creates the 'process' command.
func NewProcessCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = &Deps{}
	}

	cmd := &cobra.Command{
		Use:   "process <path>",
		Short: "Run the full meeting pipeline on a recording or transcript",
		Long: `Run the full pipeline: extract a transcript from the input, optionally
snapshot a GitHub repository for code context, analyze the meeting, and store
the result for follow-up commands.

Supported inputs: .mp4, .mp3, .wav, .txt, .vtt

Examples:
  # Analyze a transcript
  recap process ./meeting.txt

  # Analyze a recording with repository context
  recap process ./standup.mp4 --repo octocat/hello-world --branch main

  # Analyze and send results everywhere in one go
  recap process ./meeting.vtt --repo octocat/hello-world --distribute github,asana,mail`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, deps, args[0])
		},
	}

	cmd.Flags().StringVarP(&processRepo, "repo", "r", "", "GitHub repository for code context (owner/name or URL)")
	cmd.Flags().StringVarP(&processBranch, "branch", "b", "", "Repository branch (default: main)")
	cmd.Flags().StringVar(&processDistribute, "distribute", "", "Comma-separated destinations to notify after analysis (github, asana, mail)")
	cmd.Flags().IntVar(&processMaxChars, "max-chars", 0, "Maximum transcript characters embedded in the analysis prompt")

	return cmd
}

func runProcess(cmd *cobra.Command, deps *Deps, inputPath string) error {
	if err := deps.ensure(); err != nil {
		return err
	}
	if processMaxChars > 0 {
		deps.Config.LLM.MaxTranscriptChars = processMaxChars
	}

	runner, err := deps.runner()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), deps.commandTimeout())
	defer cancel()

	result, err := runner.Process(ctx, pipeline.Request{
		InputPath:  inputPath,
		Repository: processRepo,
		Branch:     processBranch,
	})
	if err != nil {
		return err
	}

	store, err := deps.sessionStore()
	if err != nil {
		return err
	}
	if _, err := store.SetResult(inputPath, result.Transcript.FullText, result.Record); err != nil {
		return err
	}

	if processDistribute != "" {
		targets := splitTargets(processDistribute)
		adapters, err := deps.adapters(targets)
		if err != nil {
			return err
		}
		if err := runFanOut(ctx, cmd, deps, adapters, result.Record); err != nil {
			return err
		}
	}

	return writeResult(cmd.OutOrStdout(), deps.Config.OutputFormat, result, func(w io.Writer) error {
		return printProcessResult(w, result)
	})
}

func printProcessResult(w io.Writer, result *pipeline.Result) error {
	fmt.Fprintf(w, "Processed %s input in %s\n", result.MediaKind, result.Duration.Round(timeRounding))
	if result.Snapshot != nil {
		fmt.Fprintf(w, "Repository: %s@%s (%d files)\n",
			result.Snapshot.Repository, result.Snapshot.Branch, len(result.Snapshot.Files))
	}
	fmt.Fprintln(w)

	printRecord(w, result.Record)

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "\nWarning: %s\n", warning)
	}
	return nil
}

func splitTargets(s string) []string {
	var targets []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			targets = append(targets, part)
		}
	}
	return targets
}

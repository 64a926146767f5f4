package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/recap-cli/pkg/repo"
)

// Analyze command flags.
var (
	analyzeRepo     string
	analyzeBranch   string
	analyzeMaxChars int
)

// NewAnalyzeCommand creates the 'analyze' command.
func NewAnalyzeCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = &Deps{}
	}

	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Analyze a transcript into summary, action items, and decisions",
		Long: `Analyze a transcript with the language model.

With a path argument the transcript file is parsed and analyzed. Without one,
the transcript extracted by the last 'recap process' or 'recap transcribe'
run is re-analyzed, which is useful after changing the repository context.

Examples:
  recap analyze ./meeting.txt
  recap analyze ./meeting.txt --repo octocat/hello-world
  recap analyze`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return runAnalyze(cmd, deps, path)
		},
	}

	cmd.Flags().StringVarP(&analyzeRepo, "repo", "r", "", "GitHub repository for code context (owner/name or URL)")
	cmd.Flags().StringVarP(&analyzeBranch, "branch", "b", "", "Repository branch (default: main)")
	cmd.Flags().IntVar(&analyzeMaxChars, "max-chars", 0, "Maximum transcript characters embedded in the analysis prompt")

	return cmd
}

func runAnalyze(cmd *cobra.Command, deps *Deps, path string) error {
	if err := deps.ensure(); err != nil {
		return err
	}
	if analyzeMaxChars > 0 {
		deps.Config.LLM.MaxTranscriptChars = analyzeMaxChars
	}

	store, err := deps.sessionStore()
	if err != nil {
		return err
	}

	var (
		text   string
		source string
	)
	if path != "" {
		transcript, err := parseTranscriptFile(path)
		if err != nil {
			return err
		}
		text, source = transcript.FullText, path
	} else {
		text, source = store.ExtractedText(), "session"
		if text == "" {
			return fmt.Errorf("no stored transcript: run 'recap process <path>' first or pass a file")
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), deps.commandTimeout())
	defer cancel()

	var filePaths []string
	if analyzeRepo != "" {
		loc, err := repo.ParseLocator(analyzeRepo)
		if err != nil {
			return err
		}
		fetcher, err := deps.snapshotFetcher()
		if err != nil {
			return err
		}
		snap, err := fetcher.Fetch(ctx, loc, analyzeBranch)
		if err != nil {
			return err
		}
		filePaths = snap.FileList()
	}

	analyzer, err := deps.analyzer()
	if err != nil {
		return err
	}
	rec, err := analyzer.Analyze(ctx, text, filePaths)
	if err != nil {
		return err
	}

	if _, err := store.SetResult(source, text, rec); err != nil {
		return err
	}

	return writeResult(cmd.OutOrStdout(), deps.Config.OutputFormat, rec, func(w io.Writer) error {
		printRecord(w, rec)
		return nil
	})
}

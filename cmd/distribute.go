package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/recap-cli/pkg/analyze"
	"github.com/otherjamesbrown/recap-cli/pkg/distribute"
)

var distributeTo string

// NewDistributeCommand creates the 'distribute' command.
func NewDistributeCommand(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = &Deps{}
	}

	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Send the latest analysis to configured destinations",
		Long: `Send the latest analysis record to downstream destinations.

Destinations:
  github  Post the summary as a single issue (requires github.repository)
  asana   Create one task per action item (requires asana.project_id)
  mail    Email the summary to configured recipients (requires mail.*)

Destinations are independent: a failure in one never blocks the others. When
some destinations fail the command reports a partial distribution and exits
non-zero.

Examples:
  recap distribute --to github
  recap distribute --to github,asana,mail`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDistribute(cmd, deps)
		},
	}

	cmd.Flags().StringVar(&distributeTo, "to", "", "Comma-separated destinations (github, asana, mail)")
	cmd.MarkFlagRequired("to")

	return cmd
}

func runDistribute(cmd *cobra.Command, deps *Deps) error {
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

	adapters, err := deps.adapters(splitTargets(distributeTo))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), deps.commandTimeout())
	defer cancel()

	return runFanOut(ctx, cmd, deps, adapters, rec)
}

// runFanOut executes the fan-out and prints the outcome. Partial failures
// surface as an error after the successful deliveries are reported.
func runFanOut(ctx context.Context, cmd *cobra.Command, deps *Deps, adapters []distribute.Adapter, rec *analyze.Record) error {
	distributor := distribute.NewDistributor(deps.Logger, adapters...)
	outcome, fanErr := distributor.FanOut(ctx, rec)

	if outcome != nil && deps.Metrics != nil {
		for _, result := range outcome.Results {
			deps.Metrics.RecordDistribution(result.Destination, "ok")
		}
		for _, failure := range outcome.Failures {
			deps.Metrics.RecordDistribution(failure.Destination, "error")
		}
	}

	if outcome != nil {
		if err := writeResult(cmd.OutOrStdout(), deps.Config.OutputFormat, outcome, func(w io.Writer) error {
			printOutcome(w, outcome)
			return nil
		}); err != nil {
			return err
		}
	}

	return fanErr
}

func printOutcome(w io.Writer, outcome *distribute.Outcome) {
	for _, result := range outcome.Results {
		detail := ""
		if result.Detail != "" {
			detail = " (" + result.Detail + ")"
		}
		fmt.Fprintf(w, "%s: delivered %d item(s)%s\n", result.Destination, result.Created, detail)
	}
	for _, failure := range outcome.Failures {
		fmt.Fprintf(w, "%s: FAILED: %s\n", failure.Destination, failure.Error)
	}
}

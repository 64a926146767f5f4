// Package distribute fans an analysis record out to downstream destinations:
// GitHub issues, Asana tasks, and email. Destinations are isolated from each
// other; one failing never blocks the rest.
package distribute

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/otherjamesbrown/recap-cli/pkg/analyze"
	rcerrors "github.com/otherjamesbrown/recap-cli/pkg/errors"
	"github.com/otherjamesbrown/recap-cli/pkg/logging"
)

// Adapter delivers a record to one destination.
type Adapter interface {
	// Name identifies the destination ("github", "asana", "mail").
	Name() string

	// Distribute delivers the record and reports what was created.
	Distribute(ctx context.Context, rec *analyze.Record) (*Result, error)
}

// Result describes a successful delivery to one destination.
type Result struct {
	Destination string        `json:"destination"`
	Created     int           `json:"created"`
	Detail      string        `json:"detail,omitempty"`
	Items       []TaskResult  `json:"items,omitempty"`
	Duration    time.Duration `json:"-"`
}

// TaskResult describes one delivered item for destinations that create a
// remote object per action item.
type TaskResult struct {
	Task     string `json:"task"`
	Assignee string `json:"assignee,omitempty"`
	Success  bool   `json:"success"`
	RemoteID string `json:"remote_id,omitempty"`
	Err      string `json:"error,omitempty"`
}

// Failure describes a failed delivery to one destination.
type Failure struct {
	Destination string `json:"destination"`
	Error       string `json:"error"`
}

// Outcome aggregates the fan-out across all destinations.
type Outcome struct {
	Results  []Result  `json:"results"`
	Failures []Failure `json:"failures,omitempty"`
}

// Partial reports whether some but not all destinations failed.
func (o *Outcome) Partial() bool {
	return len(o.Failures) > 0 && len(o.Results) > 0
}

// Distributor fans a record out across its configured adapters in order.
type Distributor struct {
	adapters []Adapter
	logger   logging.Logger
}

// NewDistributor creates a Distributor over the given adapters.
func NewDistributor(logger logging.Logger, adapters ...Adapter) *Distributor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Distributor{adapters: adapters, logger: logger}
}

// FanOut delivers the record to every adapter. Adapter failures are recorded
// and do not stop later adapters. The returned error is nil when everything
// succeeded, a partial_distribution error when some destinations failed, and
// a plain error when all of them did.
func (d *Distributor) FanOut(ctx context.Context, rec *analyze.Record) (*Outcome, error) {
	if len(d.adapters) == 0 {
		return nil, fmt.Errorf("%w: no distribution destinations configured", rcerrors.ErrValidation)
	}

	outcome := &Outcome{}
	for _, adapter := range d.adapters {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		started := time.Now()
		result, err := adapter.Distribute(ctx, rec)
		if err != nil {
			d.logger.Error("distribution failed",
				logging.F("destination", adapter.Name()),
				logging.Err(err))
			outcome.Failures = append(outcome.Failures, Failure{
				Destination: adapter.Name(),
				Error:       err.Error(),
			})
			continue
		}

		result.Destination = adapter.Name()
		result.Duration = time.Since(started)
		outcome.Results = append(outcome.Results, *result)

		d.logger.Info("distribution complete",
			logging.F("destination", adapter.Name()),
			logging.F("created", result.Created),
			logging.F("duration_ms", result.Duration.Milliseconds()))
	}

	switch {
	case len(outcome.Failures) == 0:
		return outcome, nil
	case len(outcome.Results) == 0:
		names := make([]string, len(outcome.Failures))
		for i, f := range outcome.Failures {
			names[i] = f.Destination
		}
		return outcome, fmt.Errorf("all destinations failed: %s", strings.Join(names, ", "))
	default:
		return outcome, &rcerrors.PipelineError{
			Code:    rcerrors.CodePartialDistribution,
			Stage:   "distribute",
			Message: fmt.Sprintf("%d of %d destinations failed", len(outcome.Failures), len(d.adapters)),
		}
	}
}

package triage

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/zen-systems/triageflow/pkg/telemetry"
)

// Runner processes an ordered batch of tickets through a pipeline. A single
// ticket's failure is isolated by default: the rest of the batch still runs
// and the failure is collected alongside the outcomes. Output order always
// matches input order.
type Runner struct {
	pipeline  *Pipeline
	workers   int
	failFast  bool
	logger    *slog.Logger
	collector *telemetry.Collector
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers enables bounded-parallel processing of independent tickets.
// Outcomes for different tickets share no mutable state, so parallel runs
// preserve per-ticket semantics; results stay index-aligned with the input.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		r.workers = n
	}
}

// WithFailFast stops the batch at the first ticket failure instead of
// isolating it.
func WithFailFast(failFast bool) RunnerOption {
	return func(r *Runner) {
		r.failFast = failFast
	}
}

// WithRunnerLogger sets the runner's logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithCollector attaches telemetry counters.
func WithCollector(c *telemetry.Collector) RunnerOption {
	return func(r *Runner) {
		r.collector = c
	}
}

// NewRunner creates a batch runner over a pipeline.
func NewRunner(pipeline *Pipeline, opts ...RunnerOption) *Runner {
	r := &Runner{
		pipeline: pipeline,
		workers:  1,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers < 1 {
		r.workers = 1
	}
	return r
}

// BatchResult holds a batch's outcomes and failures. Outcomes is
// index-aligned with the input tickets; a failed ticket leaves a nil entry
// and a corresponding TicketError in Failures.
type BatchResult struct {
	Outcomes []*TicketOutcome
	Failures []*TicketError
}

// Completed returns the non-nil outcomes in input order.
func (r *BatchResult) Completed() []TicketOutcome {
	completed := make([]TicketOutcome, 0, len(r.Outcomes))
	for _, outcome := range r.Outcomes {
		if outcome != nil {
			completed = append(completed, *outcome)
		}
	}
	return completed
}

// Run processes the batch. With fail-fast disabled (the default) the returned
// error is nil even when individual tickets fail; callers inspect Failures.
// With fail-fast enabled the first *TicketError aborts the batch and is
// returned.
func (r *Runner) Run(ctx context.Context, tickets []Ticket) (*BatchResult, error) {
	result := &BatchResult{Outcomes: make([]*TicketOutcome, len(tickets))}

	if r.workers == 1 {
		if err := r.runSequential(ctx, tickets, result); err != nil {
			return result, err
		}
	} else {
		if err := r.runParallel(ctx, tickets, result); err != nil {
			return result, err
		}
	}

	for _, outcome := range result.Outcomes {
		if outcome == nil {
			continue
		}
		r.collector.TicketProcessed(outcome.Routing.Escalate)
	}
	return result, nil
}

func (r *Runner) runSequential(ctx context.Context, tickets []Ticket, result *BatchResult) error {
	for i, ticket := range tickets {
		if err := ctx.Err(); err != nil {
			return err
		}
		outcome, err := r.pipeline.Process(ctx, ticket)
		if err != nil {
			if stop := r.recordFailure(result, err); stop {
				return err
			}
			continue
		}
		result.Outcomes[i] = outcome
	}
	return nil
}

func (r *Runner) runParallel(ctx context.Context, tickets []Ticket, result *BatchResult) error {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(r.workers)

	failures := make([]*TicketError, len(tickets))
	for i, ticket := range tickets {
		group.Go(func() error {
			outcome, err := r.pipeline.Process(ctx, ticket)
			if err != nil {
				var ticketErr *TicketError
				if errors.As(err, &ticketErr) {
					r.logFailure(ticketErr)
					failures[i] = ticketErr
					if r.failFast {
						return err
					}
					return nil
				}
				return err
			}
			result.Outcomes[i] = outcome
			return nil
		})
	}

	err := group.Wait()
	for _, failure := range failures {
		if failure != nil {
			result.Failures = append(result.Failures, failure)
		}
	}
	return err
}

// recordFailure logs and collects a ticket failure. It reports true when the
// batch should stop.
func (r *Runner) recordFailure(result *BatchResult, err error) bool {
	var ticketErr *TicketError
	if !errors.As(err, &ticketErr) {
		// Not a per-ticket failure; treat as fatal for the batch.
		return true
	}
	r.logFailure(ticketErr)
	result.Failures = append(result.Failures, ticketErr)
	return r.failFast
}

func (r *Runner) logFailure(ticketErr *TicketError) {
	r.logger.Warn("ticket failed", "ticket", ticketErr.TicketID, "stage", ticketErr.Stage, "error", ticketErr.Err)
	r.collector.TicketFailed(ticketErr.Stage)
}

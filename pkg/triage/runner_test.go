package triage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zen-systems/triageflow/pkg/backend"
	"github.com/zen-systems/triageflow/pkg/telemetry"
)

// flakyBackend fails the priority stage for selected ticket subjects.
type flakyBackend struct {
	inner       backend.Backend
	failSubject string
	seenSubject string
}

func (b *flakyBackend) Name() string { return "flaky" }

func (b *flakyBackend) Decide(ctx context.Context, req backend.Request) (map[string]any, error) {
	if req.Stage == backend.StageSentiment {
		b.seenSubject, _ = req.Input["subject"].(string)
	}
	if req.Stage == backend.StagePriority && b.seenSubject == b.failSubject {
		return nil, backend.Unavailable(b.Name(), req.Stage, errors.New("simulated outage"))
	}
	return b.inner.Decide(ctx, req)
}

func batchOf(n int) []Ticket {
	tickets := make([]Ticket, 0, n)
	for i := 0; i < n; i++ {
		ticket := sampleTicket(fmt.Sprintf("TKT-%d", i+1))
		ticket.Subject = fmt.Sprintf("Issue %d", i+1)
		tickets = append(tickets, ticket)
	}
	return tickets
}

func TestRunnerPreservesOrder(t *testing.T) {
	runner := NewRunner(NewPipeline(backend.NewStaticBackend(nil)))
	tickets := batchOf(5)

	result, err := runner.Run(context.Background(), tickets)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	completed := result.Completed()
	if len(completed) != len(tickets) {
		t.Fatalf("completed = %d, want %d", len(completed), len(tickets))
	}
	for i, outcome := range completed {
		if outcome.TicketID != tickets[i].ID {
			t.Errorf("outcome[%d] = %s, want %s", i, outcome.TicketID, tickets[i].ID)
		}
	}
}

func TestRunnerIsolatesTicketFailure(t *testing.T) {
	b := &flakyBackend{inner: backend.NewStaticBackend(nil), failSubject: "Issue 2"}
	runner := NewRunner(NewPipeline(b))
	tickets := batchOf(3)

	result, err := runner.Run(context.Background(), tickets)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.Outcomes[0] == nil || result.Outcomes[2] == nil {
		t.Fatalf("tickets 1 and 3 must still complete")
	}
	if result.Outcomes[1] != nil {
		t.Fatalf("ticket 2 must not produce an outcome")
	}
	if len(result.Failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(result.Failures))
	}
	failure := result.Failures[0]
	if failure.TicketID != "TKT-2" || failure.Stage != backend.StagePriority {
		t.Errorf("failure = %+v", failure)
	}

	completed := result.Completed()
	if len(completed) != 2 || completed[0].TicketID != "TKT-1" || completed[1].TicketID != "TKT-3" {
		t.Errorf("completed = %+v", completed)
	}
}

func TestRunnerFailFast(t *testing.T) {
	b := &flakyBackend{inner: backend.NewStaticBackend(nil), failSubject: "Issue 2"}
	runner := NewRunner(NewPipeline(b), WithFailFast(true))

	_, err := runner.Run(context.Background(), batchOf(3))
	var ticketErr *TicketError
	if !errors.As(err, &ticketErr) {
		t.Fatalf("expected *TicketError, got %v", err)
	}
	if ticketErr.TicketID != "TKT-2" {
		t.Errorf("ticket id = %q", ticketErr.TicketID)
	}
}

func TestRunnerParallelMatchesSequential(t *testing.T) {
	tickets := batchOf(8)

	sequential, err := NewRunner(NewPipeline(backend.NewRuleBackend())).Run(context.Background(), tickets)
	if err != nil {
		t.Fatalf("sequential run: %v", err)
	}
	parallel, err := NewRunner(NewPipeline(backend.NewRuleBackend()), WithWorkers(4)).Run(context.Background(), tickets)
	if err != nil {
		t.Fatalf("parallel run: %v", err)
	}

	for i := range tickets {
		seq, par := sequential.Outcomes[i], parallel.Outcomes[i]
		if seq == nil || par == nil {
			t.Fatalf("outcome %d missing", i)
		}
		if *seq != *par {
			t.Errorf("outcome %d differs:\nsequential %+v\nparallel   %+v", i, seq, par)
		}
	}
}

func TestRunnerRecordsTelemetry(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := telemetry.NewCollector(reg)

	b := &flakyBackend{inner: backend.NewStaticBackend(nil), failSubject: "Issue 3"}
	runner := NewRunner(NewPipeline(b), WithCollector(collector))

	if _, err := runner.Run(context.Background(), batchOf(3)); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := counterValue(t, reg, "triageflow_tickets_processed_total"); got != 2 {
		t.Errorf("processed = %v, want 2", got)
	}
	if got := counterValue(t, reg, "triageflow_tickets_failed_total"); got != 1 {
		t.Errorf("failed = %v, want 1", got)
	}
	if got := counterValue(t, reg, "triageflow_tickets_escalated_total"); got != 2 {
		t.Errorf("escalated = %v, want 2", got)
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	total := 0.0
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

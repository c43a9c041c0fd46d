package report

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/zen-systems/triageflow/pkg/metrics"
	"github.com/zen-systems/triageflow/pkg/triage"
)

// Printer writes human-readable batch output.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a printer over the given writer.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintOutcomes writes one block per completed ticket.
func (p *Printer) PrintOutcomes(outcomes []triage.TicketOutcome) {
	for i, outcome := range outcomes {
		fmt.Fprintf(p.w, "=== Ticket %d: %s ===\n", i+1, outcome.TicketID)
		tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "  sentiment\tscore=%.2f\turgency=%s\n",
			outcome.Sentiment.SentimentScore, outcome.Sentiment.UrgencyLevel)
		fmt.Fprintf(tw, "  priority\tscore=%.2f\tsla=%s\n",
			outcome.Priority.PriorityScore, outcome.Priority.SLATarget)
		fmt.Fprintf(tw, "  routing\troute=%s\tescalate=%t\n",
			outcome.Routing.RouteTo, outcome.Routing.Escalate)
		tw.Flush()
	}
}

// PrintFailures lists tickets that did not complete.
func (p *Printer) PrintFailures(failures []*triage.TicketError) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(p.w, "\n%d ticket(s) failed:\n", len(failures))
	for _, failure := range failures {
		fmt.Fprintf(p.w, "  %s: %s stage: %v\n", failure.TicketID, failure.Stage, failure.Err)
	}
}

// PrintMetrics writes the batch summary. Routes print in lexical order so
// output is stable.
func (p *Printer) PrintMetrics(m *metrics.BatchMetrics) {
	fmt.Fprintf(p.w, "\n=== Batch Metrics ===\n")
	fmt.Fprintf(p.w, "escalation rate:    %.2f\n", m.EscalationRate)
	fmt.Fprintf(p.w, "average SLA hours:  %.2f\n", m.AverageSLAHours)
	fmt.Fprintf(p.w, "route distribution:\n")

	routes := make([]string, 0, len(m.RouteDistribution))
	for route := range m.RouteDistribution {
		routes = append(routes, route)
	}
	sort.Strings(routes)

	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for _, route := range routes {
		fmt.Fprintf(tw, "  %s\t%d\n", route, m.RouteDistribution[route])
	}
	tw.Flush()
}

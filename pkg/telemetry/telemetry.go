// Package telemetry exposes batch-processing counters. Metrics here describe
// the runner's health (throughput, failures); batch-level business metrics
// live in pkg/metrics.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Collector holds the runner's Prometheus counters. A nil *Collector is
// valid and records nothing.
type Collector struct {
	processed prometheus.Counter
	escalated prometheus.Counter
	failed    *prometheus.CounterVec
}

// NewCollector creates and registers the counters with the given registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		processed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triageflow_tickets_processed_total",
			Help: "Tickets that completed all three stages",
		}),
		escalated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triageflow_tickets_escalated_total",
			Help: "Completed tickets whose routing decision escalated",
		}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triageflow_tickets_failed_total",
			Help: "Tickets aborted by a stage failure",
		}, []string{"stage"}),
	}
	reg.MustRegister(c.processed, c.escalated, c.failed)
	return c
}

// TicketProcessed records a completed ticket.
func (c *Collector) TicketProcessed(escalated bool) {
	if c == nil {
		return
	}
	c.processed.Inc()
	if escalated {
		c.escalated.Inc()
	}
}

// TicketFailed records a ticket aborted at the named stage.
func (c *Collector) TicketFailed(stage string) {
	if c == nil {
		return
	}
	c.failed.WithLabelValues(stage).Inc()
}

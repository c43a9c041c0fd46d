// Package metrics reduces a batch of completed ticket outcomes to summary
// statistics. The aggregator is a pure function: it holds no state across
// calls and never mutates its input.
package metrics

import (
	"errors"

	"github.com/zen-systems/triageflow/pkg/triage"
)

// ErrEmptyBatch reports metrics requested over zero outcomes. The empty-batch
// policy is uniform: no field of BatchMetrics is defined for an empty batch,
// so Compute fails instead of returning zeros that read as real rates.
var ErrEmptyBatch = errors.New("metrics: batch contains no outcomes")

// BatchMetrics summarizes one batch. It is recomputed fresh per batch and
// carries no persisted identity.
type BatchMetrics struct {
	EscalationRate    float64        `json:"escalation_rate"`
	RouteDistribution map[string]int `json:"route_distribution"`
	AverageSLAHours   float64        `json:"average_sla_hours"`
}

// Compute aggregates an ordered sequence of outcomes.
//
// EscalationRate is escalated/total. RouteDistribution counts each distinct
// route_to value seen; routes never seen get no entry. AverageSLAHours is the
// mean of each outcome's SLA target parsed to hours (see ParseSLAHours for
// the unrecognized-unit policy).
func Compute(outcomes []triage.TicketOutcome) (*BatchMetrics, error) {
	total := len(outcomes)
	if total == 0 {
		return nil, ErrEmptyBatch
	}

	escalated := 0
	distribution := make(map[string]int)
	slaSum := 0.0

	for _, outcome := range outcomes {
		if outcome.Routing.Escalate {
			escalated++
		}
		distribution[outcome.Routing.RouteTo]++
		slaSum += ParseSLAHours(outcome.Priority.SLATarget)
	}

	return &BatchMetrics{
		EscalationRate:    float64(escalated) / float64(total),
		RouteDistribution: distribution,
		AverageSLAHours:   slaSum / float64(total),
	}, nil
}

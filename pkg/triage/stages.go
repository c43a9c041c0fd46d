package triage

import (
	"log/slog"

	"github.com/zen-systems/triageflow/pkg/backend"
	"github.com/zen-systems/triageflow/pkg/schema"
)

const sentimentPolicy = `You are a customer sentiment analyzer.
Based on the ticket subject and message, decide:
1. sentiment_score (between -1 and 1)
2. urgency_level (Low, Medium, or High)`

const priorityPolicy = `You are a customer priority evaluator.
Based on customer tier, revenue, ticket history, and account age, decide:
1. priority_score (0.0 to 1.0)
2. sla_target_time, a suggested response window (e.g. "2 hours", "1 day")`

const routingPolicy = `You are a support routing decider.
Based on urgency, sentiment, and priority, decide:
1. route_to, the team that should handle the ticket (e.g. "Tier 1 Support", "Security Team")
2. escalate (true/false)`

// SentimentInputSchema declares the sentiment stage's input contract.
func SentimentInputSchema() *schema.Schema {
	return schema.New("sentiment.input",
		schema.NonEmptyString("subject"),
		schema.NonEmptyString("message"),
	)
}

// SentimentOutputSchema declares the sentiment stage's output contract.
func SentimentOutputSchema() *schema.Schema {
	return schema.New("sentiment.output",
		schema.Number("sentiment_score", -1, 1),
		schema.Enum("urgency_level", UrgencyLow, UrgencyMedium, UrgencyHigh),
	)
}

// PriorityInputSchema declares the priority stage's input contract.
func PriorityInputSchema() *schema.Schema {
	return schema.New("priority.input",
		schema.NonEmptyString("customer_tier"),
		schema.IntAtLeast("previous_tickets", 0),
		schema.Number("monthly_revenue", 0, 1e9),
		schema.IntAtLeast("account_age_days", 0),
	)
}

// PriorityOutputSchema declares the priority stage's output contract.
func PriorityOutputSchema() *schema.Schema {
	return schema.New("priority.output",
		schema.Number("priority_score", 0, 1),
		schema.NonEmptyString("sla_target_time"),
	)
}

// RoutingInputSchema declares the routing stage's input contract.
func RoutingInputSchema() *schema.Schema {
	return schema.New("routing.input",
		schema.Enum("urgency_level", UrgencyLow, UrgencyMedium, UrgencyHigh),
		schema.Number("sentiment_score", -1, 1),
		schema.Number("priority_score", 0, 1),
		schema.NonEmptyString("sla_target_time"),
	)
}

// RoutingOutputSchema declares the routing stage's output contract.
func RoutingOutputSchema() *schema.Schema {
	return schema.New("routing.output",
		schema.NonEmptyString("route_to"),
		schema.Bool("escalate"),
	)
}

// NewSentimentStage builds the sentiment/urgency extraction stage over the
// given backend.
func NewSentimentStage(b backend.Backend, logger *slog.Logger) *Stage[SentimentInput, SentimentResult] {
	return NewStage[SentimentInput, SentimentResult](
		backend.StageSentiment, sentimentPolicy,
		SentimentInputSchema(), SentimentOutputSchema(), b, logger)
}

// NewPriorityStage builds the priority/SLA scoring stage over the given
// backend.
func NewPriorityStage(b backend.Backend, logger *slog.Logger) *Stage[PriorityInput, PriorityResult] {
	return NewStage[PriorityInput, PriorityResult](
		backend.StagePriority, priorityPolicy,
		PriorityInputSchema(), PriorityOutputSchema(), b, logger)
}

// NewRoutingStage builds the routing/escalation stage over the given backend.
func NewRoutingStage(b backend.Backend, logger *slog.Logger) *Stage[RoutingInput, RoutingResult] {
	return NewStage[RoutingInput, RoutingResult](
		backend.StageRouting, routingPolicy,
		RoutingInputSchema(), RoutingOutputSchema(), b, logger)
}

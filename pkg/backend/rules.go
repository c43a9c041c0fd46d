package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/zen-systems/triageflow/pkg/schema"
)

// Stage names the rule backend understands. Stages constructed by the triage
// package use these identifiers.
const (
	StageSentiment = "sentiment"
	StagePriority  = "priority"
	StageRouting   = "routing"
)

var negativeSignals = []string{
	"urgent", "critical", "down", "broken", "immediately", "asap",
	"angry", "frustrated", "worst", "terrible", "unacceptable", "refund",
}

var positiveSignals = []string{
	"thanks", "thank you", "great", "love", "appreciate", "excellent",
}

// RuleBackend makes deterministic heuristic decisions from keyword and
// threshold checks. It needs no network and returns the same answer for the
// same input, which makes it the backend of choice for offline runs.
type RuleBackend struct{}

// NewRuleBackend creates a rule-based backend.
func NewRuleBackend() *RuleBackend {
	return &RuleBackend{}
}

// Name returns the backend identifier.
func (b *RuleBackend) Name() string {
	return "rules"
}

// Decide dispatches on the requesting stage.
func (b *RuleBackend) Decide(_ context.Context, req Request) (map[string]any, error) {
	switch req.Stage {
	case StageSentiment:
		return b.decideSentiment(req)
	case StagePriority:
		return b.decidePriority(req)
	case StageRouting:
		return b.decideRouting(req)
	default:
		return nil, Unavailable(b.Name(), req.Stage, fmt.Errorf("no rules defined for stage %s", req.Stage))
	}
}

func (b *RuleBackend) decideSentiment(req Request) (map[string]any, error) {
	var in struct {
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := schema.Decode(req.Input, &in); err != nil {
		return nil, Malformed(b.Name(), req.Stage, err)
	}

	text := strings.ToLower(in.Subject + " " + in.Message)
	negatives := countSignals(text, negativeSignals)
	positives := countSignals(text, positiveSignals)

	score := clamp(float64(positives-negatives)*0.4, -1, 1)

	urgency := "Medium"
	switch {
	case negatives >= 2 || score <= -0.6:
		urgency = "High"
	case negatives == 0 && score >= 0:
		urgency = "Low"
	}

	return map[string]any{
		"sentiment_score": score,
		"urgency_level":   urgency,
	}, nil
}

func (b *RuleBackend) decidePriority(req Request) (map[string]any, error) {
	var in struct {
		CustomerTier    string  `json:"customer_tier"`
		PreviousTickets int     `json:"previous_tickets"`
		MonthlyRevenue  float64 `json:"monthly_revenue"`
		AccountAgeDays  int     `json:"account_age_days"`
	}
	if err := schema.Decode(req.Input, &in); err != nil {
		return nil, Malformed(b.Name(), req.Stage, err)
	}

	score := 0.1
	switch strings.ToLower(in.CustomerTier) {
	case "enterprise":
		score += 0.5
	case "business", "premium":
		score += 0.3
	}
	switch {
	case in.MonthlyRevenue >= 5000:
		score += 0.3
	case in.MonthlyRevenue >= 1000:
		score += 0.2
	case in.MonthlyRevenue >= 100:
		score += 0.1
	}
	if in.PreviousTickets >= 5 {
		score += 0.1
	}
	score = clamp(score, 0, 1)

	sla := "24 hours"
	switch {
	case score >= 0.8:
		sla = "1 hour"
	case score >= 0.5:
		sla = "4 hours"
	case score >= 0.3:
		sla = "8 hours"
	}

	return map[string]any{
		"priority_score":  score,
		"sla_target_time": sla,
	}, nil
}

func (b *RuleBackend) decideRouting(req Request) (map[string]any, error) {
	var in struct {
		UrgencyLevel   string  `json:"urgency_level"`
		SentimentScore float64 `json:"sentiment_score"`
		PriorityScore  float64 `json:"priority_score"`
		SLATarget      string  `json:"sla_target_time"`
	}
	if err := schema.Decode(req.Input, &in); err != nil {
		return nil, Malformed(b.Name(), req.Stage, err)
	}

	route := "Tier 1 Support"
	switch {
	case in.PriorityScore >= 0.8:
		route = "Tier 3 Support"
	case in.UrgencyLevel == "High" || in.PriorityScore >= 0.5:
		route = "Tier 2 Support"
	}

	escalate := in.UrgencyLevel == "High" || in.PriorityScore >= 0.8 ||
		(in.SentimentScore <= -0.6 && in.PriorityScore >= 0.5)

	return map[string]any{
		"route_to": route,
		"escalate": escalate,
	}, nil
}

func countSignals(text string, signals []string) int {
	count := 0
	for _, signal := range signals {
		if strings.Contains(text, signal) {
			count++
		}
	}
	return count
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

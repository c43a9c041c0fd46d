package triage

// Urgency levels a sentiment decision may assign.
const (
	UrgencyLow    = "Low"
	UrgencyMedium = "Medium"
	UrgencyHigh   = "High"
)

// Ticket is a customer support request with identifying and account-context
// fields. It is immutable once read from a batch.
type Ticket struct {
	ID              string  `json:"ticket_id" yaml:"ticket_id"`
	Subject         string  `json:"subject" yaml:"subject"`
	Message         string  `json:"message" yaml:"message"`
	CustomerTier    string  `json:"customer_tier" yaml:"customer_tier"`
	PreviousTickets int     `json:"previous_tickets" yaml:"previous_tickets"`
	MonthlyRevenue  float64 `json:"monthly_revenue" yaml:"monthly_revenue"`
	AccountAgeDays  int     `json:"account_age_days" yaml:"account_age_days"`
}

// SentimentInput is what the sentiment stage sees: the ticket's text only.
type SentimentInput struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// SentimentResult is the sentiment stage's decision.
type SentimentResult struct {
	SentimentScore float64 `json:"sentiment_score"`
	UrgencyLevel   string  `json:"urgency_level"`
}

// PriorityInput is what the priority stage sees: account context only,
// independent of sentiment.
type PriorityInput struct {
	CustomerTier    string  `json:"customer_tier"`
	PreviousTickets int     `json:"previous_tickets"`
	MonthlyRevenue  float64 `json:"monthly_revenue"`
	AccountAgeDays  int     `json:"account_age_days"`
}

// PriorityResult is the priority stage's decision. SLATarget is a free-form
// duration string such as "2 hours" or "1 day".
type PriorityResult struct {
	PriorityScore float64 `json:"priority_score"`
	SLATarget     string  `json:"sla_target_time"`
}

// RoutingInput merges the sentiment and priority decisions for the routing
// stage.
type RoutingInput struct {
	UrgencyLevel   string  `json:"urgency_level"`
	SentimentScore float64 `json:"sentiment_score"`
	PriorityScore  float64 `json:"priority_score"`
	SLATarget      string  `json:"sla_target_time"`
}

// RoutingResult is the routing stage's decision.
type RoutingResult struct {
	RouteTo  string `json:"route_to"`
	Escalate bool   `json:"escalate"`
}

// TicketOutcome consolidates a ticket's identity with all three stage
// decisions. It is assembled once the pipeline reaches its terminal state and
// is immutable thereafter.
type TicketOutcome struct {
	TicketID  string          `json:"ticket_id"`
	Sentiment SentimentResult `json:"sentiment"`
	Priority  PriorityResult  `json:"priority"`
	Routing   RoutingResult   `json:"routing"`
}

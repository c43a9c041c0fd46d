package triage

import (
	"context"
	"log/slog"

	"github.com/zen-systems/triageflow/pkg/backend"
)

// State tracks a single ticket's progress through the pipeline.
type State int

const (
	StateStart State = iota
	StateSentimentDone
	StatePriorityDone
	StateRoutingDone // terminal
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateSentimentDone:
		return "sentiment_done"
	case StatePriorityDone:
		return "priority_done"
	case StateRoutingDone:
		return "routing_done"
	default:
		return "unknown"
	}
}

// Pipeline threads one ticket through the three decision stages in order:
// sentiment, then priority, then routing. Each transition builds the next
// stage's input from the ticket and the decisions made so far.
type Pipeline struct {
	sentiment *Stage[SentimentInput, SentimentResult]
	priority  *Stage[PriorityInput, PriorityResult]
	routing   *Stage[RoutingInput, RoutingResult]
	logger    *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger enables diagnostic logging for the pipeline and its stages.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline builds the three-stage pipeline over a single backend.
func NewPipeline(b backend.Backend, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(p)
	}
	p.sentiment = NewSentimentStage(b, p.logger)
	p.priority = NewPriorityStage(b, p.logger)
	p.routing = NewRoutingStage(b, p.logger)
	return p
}

// Process runs one ticket to completion. Any stage failure aborts the run
// with a *TicketError naming the ticket and the failing stage; there is no
// partial outcome and no implicit retry.
func (p *Pipeline) Process(ctx context.Context, ticket Ticket) (*TicketOutcome, error) {
	state := StateStart

	sentiment, err := p.sentiment.Invoke(ctx, SentimentInput{
		Subject: ticket.Subject,
		Message: ticket.Message,
	})
	if err != nil {
		return nil, p.abort(ticket, state, p.sentiment.Name(), err)
	}
	state = StateSentimentDone

	// Priority looks at account context only; sentiment does not feed it.
	priority, err := p.priority.Invoke(ctx, PriorityInput{
		CustomerTier:    ticket.CustomerTier,
		PreviousTickets: ticket.PreviousTickets,
		MonthlyRevenue:  ticket.MonthlyRevenue,
		AccountAgeDays:  ticket.AccountAgeDays,
	})
	if err != nil {
		return nil, p.abort(ticket, state, p.priority.Name(), err)
	}
	state = StatePriorityDone

	routing, err := p.routing.Invoke(ctx, RoutingInput{
		UrgencyLevel:   sentiment.UrgencyLevel,
		SentimentScore: sentiment.SentimentScore,
		PriorityScore:  priority.PriorityScore,
		SLATarget:      priority.SLATarget,
	})
	if err != nil {
		return nil, p.abort(ticket, state, p.routing.Name(), err)
	}
	state = StateRoutingDone

	p.logger.Debug("ticket complete", "ticket", ticket.ID, "state", state.String(),
		"route", routing.RouteTo, "escalate", routing.Escalate)

	return &TicketOutcome{
		TicketID:  ticket.ID,
		Sentiment: sentiment,
		Priority:  priority,
		Routing:   routing,
	}, nil
}

func (p *Pipeline) abort(ticket Ticket, state State, stage string, err error) error {
	p.logger.Debug("ticket aborted", "ticket", ticket.ID, "state", state.String(), "stage", stage, "error", err)
	return &TicketError{TicketID: ticket.ID, Stage: stage, Err: err}
}

package triage

import "fmt"

// TicketError wraps a stage failure with the ticket it aborted and the stage
// that raised it. A ticket that fails produces no partial outcome.
type TicketError struct {
	TicketID string
	Stage    string
	Err      error
}

func (e *TicketError) Error() string {
	return fmt.Sprintf("ticket %s: stage %s: %v", e.TicketID, e.Stage, e.Err)
}

func (e *TicketError) Unwrap() error {
	return e.Err
}

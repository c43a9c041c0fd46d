package backend

import (
	"context"

	"github.com/zen-systems/triageflow/pkg/schema"
)

// Request carries one decision to a backend: the stage asking, its policy
// description, the validated input fields, and the schema the answer must
// satisfy.
type Request struct {
	Stage  string
	Policy string
	Input  map[string]any
	Output *schema.Schema
}

// Backend produces a decision record for a stage. Implementations may be a
// fixed default table, a deterministic rule set, or a remote model call; the
// pipeline never depends on which. A returned record is validated against
// Request.Output by the caller.
type Backend interface {
	// Decide produces field values for the request's output schema, or fails
	// with a *DecisionError.
	Decide(ctx context.Context, req Request) (map[string]any, error)

	// Name returns the backend's identifier.
	Name() string
}

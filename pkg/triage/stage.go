package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zen-systems/triageflow/pkg/backend"
	"github.com/zen-systems/triageflow/pkg/schema"
)

// Stage is one typed classification step: it validates its input against the
// declared input schema, asks its backend for a decision, validates the
// decision against the declared output schema, and decodes it into Out. The
// backend never sees an unvalidated record, and callers never see an output
// that failed validation.
//
// Invoke is a pure function of its input for a deterministic backend; its
// only side effect is diagnostic logging.
type Stage[In, Out any] struct {
	name    string
	policy  string
	input   *schema.Schema
	output  *schema.Schema
	backend backend.Backend
	logger  *slog.Logger
}

// NewStage constructs a stage from its schemas, policy description, and
// backend.
func NewStage[In, Out any](name, policy string, input, output *schema.Schema, b backend.Backend, logger *slog.Logger) *Stage[In, Out] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Stage[In, Out]{
		name:    name,
		policy:  policy,
		input:   input,
		output:  output,
		backend: b,
		logger:  logger,
	}
}

// Name returns the stage identifier.
func (s *Stage[In, Out]) Name() string { return s.name }

// Policy returns the stage's decision policy description. It is metadata for
// audit logging and for model backends; it is never executed as code.
func (s *Stage[In, Out]) Policy() string { return s.policy }

// InputSchema returns the declared input schema.
func (s *Stage[In, Out]) InputSchema() *schema.Schema { return s.input }

// OutputSchema returns the declared output schema.
func (s *Stage[In, Out]) OutputSchema() *schema.Schema { return s.output }

// Invoke runs one decision. Schema failures on the input surface as
// *schema.Violation; backend failures and schema failures on the produced
// output surface as *backend.DecisionError.
func (s *Stage[In, Out]) Invoke(ctx context.Context, in In) (Out, error) {
	var zero Out

	record, err := schema.Encode(in)
	if err != nil {
		return zero, fmt.Errorf("encode %s input: %w", s.name, err)
	}
	if err := s.input.Validate(record); err != nil {
		return zero, err
	}

	s.logger.Debug("stage input", "stage", s.name, "backend", s.backend.Name(), "fields", record)

	raw, err := s.backend.Decide(ctx, backend.Request{
		Stage:  s.name,
		Policy: s.policy,
		Input:  record,
		Output: s.output,
	})
	if err != nil {
		var decisionErr *backend.DecisionError
		if errors.As(err, &decisionErr) {
			return zero, err
		}
		return zero, backend.Unavailable(s.backend.Name(), s.name, err)
	}

	if err := s.output.Validate(raw); err != nil {
		return zero, backend.Malformed(s.backend.Name(), s.name, err)
	}

	var out Out
	if err := schema.Decode(raw, &out); err != nil {
		return zero, backend.Malformed(s.backend.Name(), s.name, err)
	}

	s.logger.Debug("stage decision", "stage", s.name, "backend", s.backend.Name(), "fields", raw)
	return out, nil
}

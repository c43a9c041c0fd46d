package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Reason classifies why a backend could not produce a valid decision.
type Reason string

const (
	ReasonMalformed   Reason = "malformed_output"
	ReasonUnavailable Reason = "unavailable"
	ReasonTimeout     Reason = "timeout"
)

// DecisionError reports a backend that failed to produce a schema-conformant
// decision for a stage.
type DecisionError struct {
	Backend string
	Stage   string
	Reason  Reason
	Err     error
}

func (e *DecisionError) Error() string {
	if e == nil {
		return "decision error"
	}
	msg := fmt.Sprintf("backend %s: stage %s: %s", e.Backend, e.Stage, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecisionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Decision error constructors keep the reason taxonomy in one place.

func Malformed(backend, stage string, err error) *DecisionError {
	return &DecisionError{Backend: backend, Stage: stage, Reason: ReasonMalformed, Err: err}
}

func Unavailable(backend, stage string, err error) *DecisionError {
	return &DecisionError{Backend: backend, Stage: stage, Reason: ReasonUnavailable, Err: err}
}

func Timeout(backend, stage string, err error) *DecisionError {
	return &DecisionError{Backend: backend, Stage: stage, Reason: ReasonTimeout, Err: err}
}

// IsTransient reports whether an error is safe to retry. Malformed output is
// not transient: the same request would produce the same invalid answer from
// a deterministic backend, and the caller owns repair for a model one.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var decisionErr *DecisionError
	if errors.As(err, &decisionErr) {
		return decisionErr.Reason == ReasonTimeout || decisionErr.Reason == ReasonUnavailable
	}
	return false
}

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// ModelClient is a minimal completion interface over a hosted model API.
type ModelClient interface {
	// Complete sends a prompt and returns the raw model reply.
	Complete(ctx context.Context, prompt string) (string, error)

	// Name returns the provider identifier.
	Name() string
}

// ModelBackend satisfies the Backend contract with a remote model call. The
// stage policy and input fields are rendered into a prompt asking for a JSON
// object matching the output schema; the reply is parsed and handed back for
// schema validation by the caller. Transient provider errors are retried with
// exponential backoff, and the configured timeout is surfaced as a timeout
// decision failure.
type ModelBackend struct {
	client     ModelClient
	timeout    time.Duration
	maxRetries uint64
	logger     *slog.Logger
}

// ModelOption configures a ModelBackend.
type ModelOption func(*ModelBackend)

// WithTimeout bounds each decision, retries included.
func WithTimeout(timeout time.Duration) ModelOption {
	return func(b *ModelBackend) {
		b.timeout = timeout
	}
}

// WithMaxRetries sets how many times a transient provider error is retried.
func WithMaxRetries(n uint64) ModelOption {
	return func(b *ModelBackend) {
		b.maxRetries = n
	}
}

// WithLogger enables diagnostic logging of prompts and decisions.
func WithLogger(logger *slog.Logger) ModelOption {
	return func(b *ModelBackend) {
		b.logger = logger
	}
}

// NewModelBackend wraps a model client as a decision backend.
func NewModelBackend(client ModelClient, opts ...ModelOption) *ModelBackend {
	b := &ModelBackend{
		client:     client,
		timeout:    30 * time.Second,
		maxRetries: 2,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the provider identifier.
func (b *ModelBackend) Name() string {
	return b.client.Name()
}

// Decide renders the stage request into a prompt and parses the model reply.
func (b *ModelBackend) Decide(ctx context.Context, req Request) (map[string]any, error) {
	prompt, err := buildDecisionPrompt(req)
	if err != nil {
		return nil, Malformed(b.Name(), req.Stage, err)
	}
	b.logger.Debug("model decision request", "backend", b.Name(), "stage", req.Stage, "prompt_len", len(prompt))

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	backoff := retry.WithMaxRetries(b.maxRetries, retry.NewExponential(200*time.Millisecond))

	var reply string
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		var callErr error
		reply, callErr = b.client.Complete(ctx, prompt)
		if callErr == nil {
			return nil
		}
		if IsTransient(callErr) {
			b.logger.Debug("retrying transient model error", "backend", b.Name(), "stage", req.Stage, "error", callErr)
			return retry.RetryableError(callErr)
		}
		return callErr
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, Timeout(b.Name(), req.Stage, err)
		}
		return nil, Unavailable(b.Name(), req.Stage, err)
	}

	record, err := parseDecisionReply(reply)
	if err != nil {
		return nil, Malformed(b.Name(), req.Stage, err)
	}
	b.logger.Debug("model decision", "backend", b.Name(), "stage", req.Stage, "fields", record)
	return record, nil
}

// buildDecisionPrompt renders the policy, the input fields, and the expected
// output shape into a single instruction.
func buildDecisionPrompt(req Request) (string, error) {
	inputJSON, err := json.MarshalIndent(req.Input, "", "  ")
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(req.Policy))
	sb.WriteString("\n\nInput:\n")
	sb.Write(inputJSON)
	sb.WriteString("\n\nReturn ONLY a JSON object with exactly these fields:\n")
	for _, field := range req.Output.Fields {
		sb.WriteString(fmt.Sprintf("- %s (%s", field.Name, field.Type))
		if field.Min != nil && field.Max != nil {
			sb.WriteString(fmt.Sprintf(", between %v and %v", *field.Min, *field.Max))
		}
		if len(field.Enum) > 0 {
			sb.WriteString(", one of: " + strings.Join(field.Enum, ", "))
		}
		sb.WriteString(")\n")
	}
	return sb.String(), nil
}

// parseDecisionReply extracts a JSON object from a model reply, tolerating
// markdown code fences.
func parseDecisionReply(reply string) (map[string]any, error) {
	content := strings.TrimSpace(reply)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var record map[string]any
	if err := json.Unmarshal([]byte(content), &record); err != nil {
		return nil, fmt.Errorf("reply is not a JSON object: %w", err)
	}
	if len(record) == 0 {
		return nil, fmt.Errorf("reply contains no fields")
	}
	return record, nil
}

package backend

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/zen-systems/triageflow/pkg/schema"
)

// fakeModelClient returns canned replies and records call counts.
type fakeModelClient struct {
	replies []string
	errs    []error
	calls   int
}

func (c *fakeModelClient) Name() string { return "fake" }

func (c *fakeModelClient) Complete(_ context.Context, _ string) (string, error) {
	i := c.calls
	c.calls++
	if i < len(c.errs) && c.errs[i] != nil {
		return "", c.errs[i]
	}
	if i < len(c.replies) {
		return c.replies[i], nil
	}
	return "", fmt.Errorf("no scripted reply for call %d", i)
}

func sentimentRequest() Request {
	return Request{
		Stage:  StageSentiment,
		Policy: "Analyze customer sentiment.",
		Input:  map[string]any{"subject": "Login broken", "message": "I cannot log in."},
		Output: schema.New("sentiment.output",
			schema.Number("sentiment_score", -1, 1),
			schema.Enum("urgency_level", "Low", "Medium", "High"),
		),
	}
}

func TestModelBackendParsesReply(t *testing.T) {
	client := &fakeModelClient{replies: []string{`{"sentiment_score": -0.7, "urgency_level": "High"}`}}
	b := NewModelBackend(client)

	record, err := b.Decide(context.Background(), sentimentRequest())
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if record["sentiment_score"] != -0.7 || record["urgency_level"] != "High" {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestModelBackendStripsCodeFences(t *testing.T) {
	client := &fakeModelClient{replies: []string{"```json\n{\"sentiment_score\": 0.1, \"urgency_level\": \"Low\"}\n```"}}
	b := NewModelBackend(client)

	record, err := b.Decide(context.Background(), sentimentRequest())
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if record["urgency_level"] != "Low" {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestModelBackendMalformedReply(t *testing.T) {
	client := &fakeModelClient{replies: []string{"The sentiment is negative."}}
	b := NewModelBackend(client)

	_, err := b.Decide(context.Background(), sentimentRequest())
	var decisionErr *DecisionError
	if !errors.As(err, &decisionErr) {
		t.Fatalf("expected *DecisionError, got %v", err)
	}
	if decisionErr.Reason != ReasonMalformed {
		t.Errorf("reason = %s, want %s", decisionErr.Reason, ReasonMalformed)
	}
	if client.calls != 1 {
		t.Errorf("malformed output must not be retried, got %d calls", client.calls)
	}
}

func TestModelBackendRetriesTransientErrors(t *testing.T) {
	transient := Unavailable("fake", StageSentiment, fmt.Errorf("status 503"))
	client := &fakeModelClient{
		errs:    []error{transient, transient},
		replies: []string{"", "", `{"sentiment_score": 0.0, "urgency_level": "Medium"}`},
	}
	b := NewModelBackend(client, WithMaxRetries(3))

	record, err := b.Decide(context.Background(), sentimentRequest())
	if err != nil {
		t.Fatalf("decide after retries: %v", err)
	}
	if record["urgency_level"] != "Medium" {
		t.Fatalf("unexpected record: %v", record)
	}
	if client.calls != 3 {
		t.Errorf("calls = %d, want 3", client.calls)
	}
}

func TestModelBackendTimeout(t *testing.T) {
	client := &slowModelClient{delay: 200 * time.Millisecond}
	b := NewModelBackend(client, WithTimeout(10*time.Millisecond), WithMaxRetries(0))

	_, err := b.Decide(context.Background(), sentimentRequest())
	var decisionErr *DecisionError
	if !errors.As(err, &decisionErr) {
		t.Fatalf("expected *DecisionError, got %v", err)
	}
	if decisionErr.Reason != ReasonTimeout {
		t.Errorf("reason = %s, want %s", decisionErr.Reason, ReasonTimeout)
	}
}

type slowModelClient struct {
	delay time.Duration
}

func (c *slowModelClient) Name() string { return "slow" }

func (c *slowModelClient) Complete(ctx context.Context, _ string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(c.delay):
		return `{}`, nil
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "timeout reason", err: Timeout("m", "s", nil), want: true},
		{name: "unavailable reason", err: Unavailable("m", "s", nil), want: true},
		{name: "malformed reason", err: Malformed("m", "s", nil), want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

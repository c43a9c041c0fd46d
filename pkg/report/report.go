// Package report renders and persists batch results. The core pipeline hands
// it an ordered sequence of outcomes; everything here is presentation and
// serialization around that output.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/zen-systems/triageflow/pkg/metrics"
	"github.com/zen-systems/triageflow/pkg/triage"
)

// Document is the persisted shape of one batch run: the full outcome list
// with nested sentiment/priority/routing sub-objects, plus the computed
// metrics.
type Document struct {
	RunID       string                 `json:"run_id"`
	GeneratedAt time.Time              `json:"generated_at"`
	Backend     string                 `json:"backend"`
	Results     []triage.TicketOutcome `json:"results"`
	Metrics     *metrics.BatchMetrics  `json:"metrics,omitempty"`
}

// NewDocument assembles a document for a completed batch.
func NewDocument(backendName string, outcomes []triage.TicketOutcome, m *metrics.BatchMetrics) *Document {
	return &Document{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Backend:     backendName,
		Results:     outcomes,
		Metrics:     m,
	}
}

// Write serializes the document as indented JSON.
func (d *Document) Write(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads a previously written document.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse results %s: %w", path, err)
	}
	return &doc, nil
}

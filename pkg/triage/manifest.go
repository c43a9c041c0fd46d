package triage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zen-systems/triageflow/pkg/schema"
)

// Batch is an ordered collection of tickets processed together for aggregate
// reporting.
type Batch struct {
	Name    string   `yaml:"name" json:"name"`
	Tickets []Ticket `yaml:"tickets" json:"tickets"`
}

// TicketSchema declares the contract a raw ticket must satisfy before it
// enters the pipeline.
func TicketSchema() *schema.Schema {
	return schema.New("ticket",
		schema.NonEmptyString("ticket_id"),
		schema.NonEmptyString("subject"),
		schema.NonEmptyString("message"),
		schema.NonEmptyString("customer_tier"),
		schema.IntAtLeast("previous_tickets", 0),
		schema.Number("monthly_revenue", 0, 1e9),
		schema.IntAtLeast("account_age_days", 0),
	)
}

// LoadBatch reads a batch definition from a YAML or JSON file and validates
// every ticket against the ticket schema.
func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var batch Batch
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("parse batch %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("parse batch %s: %w", path, err)
		}
	}

	if err := batch.Validate(); err != nil {
		return nil, err
	}
	return &batch, nil
}

// Validate checks the batch definition for errors.
func (b *Batch) Validate() error {
	if len(b.Tickets) == 0 {
		return fmt.Errorf("batch must define at least one ticket")
	}

	ticketSchema := TicketSchema()
	seen := make(map[string]struct{})
	for i, ticket := range b.Tickets {
		record, err := schema.Encode(ticket)
		if err != nil {
			return fmt.Errorf("ticket %d: %w", i, err)
		}
		if err := ticketSchema.Validate(record); err != nil {
			return fmt.Errorf("ticket %d: %w", i, err)
		}
		if _, ok := seen[ticket.ID]; ok {
			return fmt.Errorf("duplicate ticket id: %s", ticket.ID)
		}
		seen[ticket.ID] = struct{}{}
	}

	return nil
}

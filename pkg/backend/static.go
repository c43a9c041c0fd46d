package backend

import (
	"context"
	"fmt"
)

// StaticBackend answers every decision from an explicit per-field default
// table. It is the stand-in used for local runs and tests; each output field
// must have an entry keyed by its exact name.
type StaticBackend struct {
	defaults map[string]any
}

// NewStaticBackend creates a static backend over the given default table.
// Missing entries fall back to DefaultTable; a nil table uses it unchanged.
func NewStaticBackend(defaults map[string]any) *StaticBackend {
	table := DefaultTable()
	for name, value := range defaults {
		table[name] = value
	}
	return &StaticBackend{defaults: table}
}

// DefaultTable returns the built-in placeholder values, one per output field
// across the three stages.
func DefaultTable() map[string]any {
	return map[string]any{
		"sentiment_score": 0.8,
		"urgency_level":   "Medium",
		"priority_score":  0.8,
		"sla_target_time": "4 hours",
		"route_to":        "Tier 2 Support",
		"escalate":        true,
	}
}

// Name returns the backend identifier.
func (b *StaticBackend) Name() string {
	return "static"
}

// Decide returns the configured default for each field the output schema
// declares. A field without a table entry is a malformed-output failure.
func (b *StaticBackend) Decide(_ context.Context, req Request) (map[string]any, error) {
	record := make(map[string]any, len(req.Output.Fields))
	for _, field := range req.Output.Fields {
		value, ok := b.defaults[field.Name]
		if !ok {
			return nil, Malformed(b.Name(), req.Stage, fmt.Errorf("no default configured for field %s", field.Name))
		}
		record[field.Name] = value
	}
	return record, nil
}

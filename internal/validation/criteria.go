// Package validation validates inbound request bodies against a JSON
// Schema before they ever reach the Planner, the first line of spec §7's
// error taxonomy ("validation errors ... rejected with a structured
// error message"). Grounded on goadesign-goa-ai's use of
// santhosh-tekuri/jsonschema for request-body validation.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const criteriaSchemaSource = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["total_budget", "guest_count"],
  "properties": {
    "total_budget": {"type": "integer", "minimum": 0},
    "guest_count": {"type": "integer", "minimum": 1},
    "style": {"type": "string"},
    "venue": {"type": "object"},
    "catering": {"type": "object"},
    "decor": {"type": "object"}
  }
}`

// CriteriaValidator wraps a compiled schema for the inbound criteria body.
type CriteriaValidator struct {
	schema *jsonschema.Schema
}

func NewCriteriaValidator() (*CriteriaValidator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("criteria.json", bytes.NewReader([]byte(criteriaSchemaSource))); err != nil {
		return nil, fmt.Errorf("validation: add schema resource: %w", err)
	}
	schema, err := compiler.Compile("criteria.json")
	if err != nil {
		return nil, fmt.Errorf("validation: compile criteria schema: %w", err)
	}
	return &CriteriaValidator{schema: schema}, nil
}

// Validate checks raw request-body bytes against the criteria schema,
// returning a flattened list of human-readable error strings (empty on
// success).
func (v *CriteriaValidator) Validate(body []byte) []string {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return []string{fmt.Sprintf("invalid JSON: %v", err)}
	}
	if err := v.schema.Validate(doc); err != nil {
		// jsonschema/v6's ValidationError.Error() already renders a
		// multi-line, path-qualified message per failed keyword.
		return []string{err.Error()}
	}
	return nil
}

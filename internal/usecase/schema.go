package usecase

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/millscan/backend/internal/domain"
)

// recordSchema is deliberately permissive: sections are optional (an absent
// section is an extraction gap, reflected in the completeness score rather
// than rejected), but when present they must be the right container type.
const recordSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "supplier_info":         {"type": "object"},
    "material_info":         {"type": "object"},
    "chemical_composition":  {"type": ["object", "array"]},
    "mechanical_properties": {"type": ["object", "array"]},
    "additional_info":       {"type": "object"}
  }
}`

var compiledRecordSchema = jsonschema.MustCompileString("record.json", recordSchema)

// ValidateRecordJSON checks that fence-stripped LLM output is valid JSON of
// the expected top-level shape. Violations are malformed responses.
func ValidateRecordJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if err := compiledRecordSchema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return nil
}

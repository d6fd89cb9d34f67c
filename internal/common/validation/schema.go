package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// OrderRequestSchema describes the POST /api/order body. Presence of prompt
// and location is checked by the planner so that each gets its own message.
var OrderRequestSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"prompt": map[string]interface{}{
			"type": "string",
		},
		"location": map[string]interface{}{
			"type": []interface{}{"string", "null"},
		},
	},
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator checks decoded JSON documents against one compiled schema.
type Validator struct {
	schema *gojsonschema.Schema
}

func NewValidator(schemaMap map[string]interface{}) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate runs the schema against a document produced by encoding/json.
func (v *Validator) Validate(document interface{}) *ValidationResult {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: err.Error(),
				Code:    "SCHEMA_ERROR",
			}},
		}
	}

	errors := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errors = append(errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    desc.Type(),
		})
	}

	return &ValidationResult{
		Valid:  result.Valid(),
		Errors: errors,
	}
}

// Summary joins the errors into one line for logs.
func (r *ValidationResult) Summary() string {
	if r == nil || len(r.Errors) == 0 {
		return ""
	}
	out := ""
	for i, e := range r.Errors {
		if i > 0 {
			out += "; "
		}
		out += e.Field + ": " + e.Message
	}
	return out
}

package recipe

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// recipeSchema validates the raw shape of a recipe document before it is
// decoded. Structural graph rules live in ValidateGraph; this catches wrong
// types and missing fields with readable messages.
var recipeSchema = map[string]any{
	"type":     "object",
	"required": []any{"name", "nodes"},
	"properties": map[string]any{
		"name":        map[string]any{"type": "string", "minLength": 3},
		"description": map[string]any{"type": "string"},
		"nodes": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":     "object",
				"required": []any{"id", "name", "type", "output_key"},
				"properties": map[string]any{
					"id":   map[string]any{"type": "string", "minLength": 1},
					"name": map[string]any{"type": "string", "minLength": 1},
					"type": map[string]any{
						"type": "string",
						"enum": []any{"text_generation", "image_generation", "video_generation", "data_processing"},
					},
					"output_key": map[string]any{"type": "string", "minLength": 1},
					"input_mapping": map[string]any{
						"type": "object",
						"additionalProperties": map[string]any{
							"type":     "object",
							"required": []any{"source"},
							"properties": map[string]any{
								"source":   map[string]any{"type": "string", "minLength": 1},
								"required": map[string]any{"type": "boolean"},
							},
						},
					},
					"error_handling": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"on_error":    map[string]any{"type": "string", "enum": []any{"fail", "skip", "retry"}},
							"max_retries": map[string]any{"type": "integer", "minimum": 0, "maximum": 10},
						},
					},
					"dependencies": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
				},
			},
		},
		"edges": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"from", "to"},
			},
		},
	},
}

// ValidateDocument checks a raw recipe document against the JSON schema.
func ValidateDocument(document map[string]any) error {
	schemaLoader := gojsonschema.NewGoLoader(recipeSchema)
	dataLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if result.Valid() {
		return nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		messages = append(messages, desc.String())
	}

	return &ValidationError{Message: strings.Join(messages, "; ")}
}

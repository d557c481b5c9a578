package rules

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// buildDocumentSchema returns the structural JSON Schema (draft 2020-12
// subset) for the rule document. Cross-reference and parameter consistency
// checks live in Document.Validate; the schema only rejects shape errors.
func buildDocumentSchema() map[string]any {
	methodEnum := []any{
		string(MethodHorizontalKeyValue), string(MethodVerticalKeyValue),
		string(MethodAmount), string(MethodDate), string(MethodRegex),
		string(MethodTableFirstRow), string(MethodFixedValue),
	}
	dataTypeEnum := []any{
		string(DataString), string(DataDecimal), string(DataDate),
		string(DataEnum), string(DataFreeText),
	}
	postEnum := []any{
		string(PostTrim), string(PostCleanSpace), string(PostParseAmount),
		string(PostParseDate), string(PostMapEnum),
	}

	stringArray := map[string]any{"type": "array", "items": map[string]any{"type": "string", "minLength": 1}}

	documentType := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"name"},
		"properties": map[string]any{
			"name":                 map[string]any{"type": "string", "minLength": 1},
			"filename_patterns":    stringArray,
			"content_markers":      stringArray,
			"confidence_threshold": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
	}

	extraction := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"method"},
		"properties": map[string]any{
			"method":       map[string]any{"type": "string", "enum": methodEnum},
			"key":          map[string]any{"type": "string"},
			"max_distance": map[string]any{"type": "number", "minimum": 0.0},
			"pattern":      map[string]any{"type": "string"},
			"table_marker": map[string]any{"type": "string"},
			"column":       map[string]any{"type": "integer", "minimum": 0},
			"value":        map[string]any{"type": "string"},
			"cases": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"match", "contains", "value"},
					"properties": map[string]any{
						"match":    map[string]any{"type": "string", "enum": []any{"filename", "content"}},
						"contains": map[string]any{"type": "string", "minLength": 1},
						"value":    map[string]any{"type": "string", "minLength": 1},
					},
				},
			},
		},
	}

	field := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"label", "data_type", "source"},
		"properties": map[string]any{
			"label":     map[string]any{"type": "string", "minLength": 1},
			"required":  map[string]any{"type": "boolean"},
			"data_type": map[string]any{"type": "string", "enum": dataTypeEnum},
			"source": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []any{"document_type", "extraction"},
				"properties": map[string]any{
					"document_type": map[string]any{"type": "string", "minLength": 1},
					"extraction":    extraction,
				},
			},
			"post_process": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string", "enum": postEnum},
			},
			"validation": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"non_empty":  map[string]any{"type": "boolean"},
					"max_length": map[string]any{"type": "integer", "minimum": 1},
					"positive":   map[string]any{"type": "boolean"},
					"min":        map[string]any{"type": "number"},
					"max":        map[string]any{"type": "number"},
				},
			},
			"choices": stringArray,
		},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"version", "document_types", "fields"},
		"properties": map[string]any{
			"version":        map[string]any{"type": "string", "minLength": 1},
			"document_types": map[string]any{"type": "array", "minItems": 1, "items": documentType},
			"fields":         map[string]any{"type": "array", "items": field},
			"aliases": map[string]any{
				"type": "object",
				"additionalProperties": map[string]any{
					"type":                 "object",
					"additionalProperties": map[string]any{"type": "string", "minLength": 1},
				},
			},
		},
	}
}

// validateAgainstSchema checks a decoded rule document against the
// structural schema.
func validateAgainstSchema(doc any) error {
	b, err := json.Marshal(buildDocumentSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("rules.schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile("rules.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	// Round-trip through encoding/json so YAML-decoded values carry the
	// types the validator expects.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}

	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRuleDocument, err)
	}
	return nil
}

package rules

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads, validates and returns the rule document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule document %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rule document %s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a YAML rule document and runs both validation passes:
// structural (schema) and semantic (cross-references, strategy parameters).
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidRuleDocument)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidRuleDocument, err)
	}

	if err := validateAgainstSchema(doc); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	return &doc, nil
}

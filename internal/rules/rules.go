// Package rules defines the declarative rule document that drives document
// classification and field extraction. The document is the single editable
// surface for adding a field or adjusting an extraction rule without
// touching core logic; it is versioned independently of code.
package rules

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidRuleDocument marks a malformed or internally inconsistent rule
// document. It is fatal at load time: an extraction session cannot start
// without a coherent rule set.
var ErrInvalidRuleDocument = errors.New("invalid rule document")

// Method selects the extraction strategy for a field. The set is closed:
// unknown method names are rejected when the document is loaded, not when a
// field is extracted.
type Method string

const (
	MethodHorizontalKeyValue Method = "horizontal_keyvalue"
	MethodVerticalKeyValue   Method = "vertical_keyvalue"
	MethodAmount             Method = "amount"
	MethodDate               Method = "date"
	MethodRegex              Method = "regex"
	MethodTableFirstRow      Method = "table_first_row"
	MethodFixedValue         Method = "fixed_value"
)

// IsValid reports whether the method names a known strategy.
func (m Method) IsValid() bool {
	switch m {
	case MethodHorizontalKeyValue, MethodVerticalKeyValue, MethodAmount,
		MethodDate, MethodRegex, MethodTableFirstRow, MethodFixedValue:
		return true
	default:
		return false
	}
}

// DataType is the typed form a field's value takes after post-processing.
type DataType string

const (
	DataString   DataType = "string"
	DataDecimal  DataType = "decimal"
	DataDate     DataType = "date"
	DataEnum     DataType = "enum"
	DataFreeText DataType = "free_text"
)

// IsValid reports whether the data type is a known one.
func (d DataType) IsValid() bool {
	switch d {
	case DataString, DataDecimal, DataDate, DataEnum, DataFreeText:
		return true
	default:
		return false
	}
}

// PostProcess names one post-processing step applied to a raw value.
type PostProcess string

const (
	PostTrim        PostProcess = "trim"
	PostCleanSpace  PostProcess = "clean_space"
	PostParseAmount PostProcess = "parse_amount"
	PostParseDate   PostProcess = "parse_date"
	PostMapEnum     PostProcess = "map_enum"
)

// IsValid reports whether the post-processing step is a known one.
func (p PostProcess) IsValid() bool {
	switch p {
	case PostTrim, PostCleanSpace, PostParseAmount, PostParseDate, PostMapEnum:
		return true
	default:
		return false
	}
}

// DocumentType describes one known document kind: how to recognize it by
// filename and by content, and the confidence it must clear.
type DocumentType struct {
	Name                string   `yaml:"name" json:"name"`
	FilenamePatterns    []string `yaml:"filename_patterns" json:"filename_patterns,omitempty"`
	ContentMarkers      []string `yaml:"content_markers" json:"content_markers,omitempty"`
	ConfidenceThreshold float64  `yaml:"confidence_threshold" json:"confidence_threshold,omitempty"`
}

// FixedCase selects a fixed value when a document attribute contains the
// given substring. Match is "filename" or "content".
type FixedCase struct {
	Match    string `yaml:"match" json:"match"`
	Contains string `yaml:"contains" json:"contains"`
	Value    string `yaml:"value" json:"value"`
}

// Extraction holds the strategy and its method-specific parameters.
type Extraction struct {
	Method Method `yaml:"method" json:"method"`

	// Key-value, amount and date strategies.
	Key         string  `yaml:"key,omitempty" json:"key,omitempty"`
	MaxDistance float64 `yaml:"max_distance,omitempty" json:"max_distance,omitempty"`

	// Regex strategy, and the plain-text fallback for key-value strategies.
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`

	// Table-first-row strategy.
	TableMarker string `yaml:"table_marker,omitempty" json:"table_marker,omitempty"`
	Column      int    `yaml:"column,omitempty" json:"column,omitempty"`

	// Fixed-value strategy.
	Value string      `yaml:"value,omitempty" json:"value,omitempty"`
	Cases []FixedCase `yaml:"cases,omitempty" json:"cases,omitempty"`
}

// Source binds a field to the single document type it may be extracted
// from. A field is never populated from two different documents.
type Source struct {
	DocumentType string     `yaml:"document_type" json:"document_type"`
	Extraction   Extraction `yaml:"extraction" json:"extraction"`
}

// Validation holds the checks applied to a field's resolved value.
type Validation struct {
	NonEmpty  bool     `yaml:"non_empty,omitempty" json:"non_empty,omitempty"`
	MaxLength int      `yaml:"max_length,omitempty" json:"max_length,omitempty"`
	Positive  bool     `yaml:"positive,omitempty" json:"positive,omitempty"`
	Min       *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max       *float64 `yaml:"max,omitempty" json:"max,omitempty"`
}

// FieldRule configures one extractable business field.
type FieldRule struct {
	Label       string        `yaml:"label" json:"label"`
	Required    bool          `yaml:"required,omitempty" json:"required,omitempty"`
	DataType    DataType      `yaml:"data_type" json:"data_type"`
	Source      Source        `yaml:"source" json:"source"`
	PostProcess []PostProcess `yaml:"post_process,omitempty" json:"post_process,omitempty"`
	Validation  Validation    `yaml:"validation,omitempty" json:"validation,omitempty"`
	Choices     []string      `yaml:"choices,omitempty" json:"choices,omitempty"`
}

// Document is the complete rule document: document-type descriptors, field
// rules and per-field alias tables.
type Document struct {
	Version       string                       `yaml:"version" json:"version"`
	DocumentTypes []DocumentType               `yaml:"document_types" json:"document_types"`
	Fields        []FieldRule                  `yaml:"fields" json:"fields"`
	Aliases       map[string]map[string]string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
}

// FieldsForType returns the field rules sourced from the given document
// type, in document order.
func (d *Document) FieldsForType(docType string) []FieldRule {
	var out []FieldRule
	for _, f := range d.Fields {
		if f.Source.DocumentType == docType {
			out = append(out, f)
		}
	}
	return out
}

// AliasesFor returns the alias table configured for a field, or nil.
func (d *Document) AliasesFor(label string) map[string]string {
	return d.Aliases[label]
}

// TypeNames returns the configured document type names in document order.
func (d *Document) TypeNames() []string {
	names := make([]string, 0, len(d.DocumentTypes))
	for _, dt := range d.DocumentTypes {
		names = append(names, dt.Name)
	}
	return names
}

// Validate checks the document's internal consistency beyond what the
// structural schema can express: strategy parameters, cross-references
// between fields and document types, and compilable patterns.
func (d *Document) Validate() error {
	if len(d.DocumentTypes) == 0 {
		return fmt.Errorf("%w: no document types configured", ErrInvalidRuleDocument)
	}

	typeNames := make(map[string]bool, len(d.DocumentTypes))
	for _, dt := range d.DocumentTypes {
		if dt.Name == "" {
			return fmt.Errorf("%w: document type with empty name", ErrInvalidRuleDocument)
		}
		if typeNames[dt.Name] {
			return fmt.Errorf("%w: duplicate document type %q", ErrInvalidRuleDocument, dt.Name)
		}
		typeNames[dt.Name] = true
		if dt.ConfidenceThreshold < 0 || dt.ConfidenceThreshold > 1 {
			return fmt.Errorf("%w: document type %q confidence threshold %v outside [0,1]",
				ErrInvalidRuleDocument, dt.Name, dt.ConfidenceThreshold)
		}
		if len(dt.FilenamePatterns) == 0 && len(dt.ContentMarkers) == 0 {
			return fmt.Errorf("%w: document type %q has no filename patterns or content markers",
				ErrInvalidRuleDocument, dt.Name)
		}
	}

	labels := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		if f.Label == "" {
			return fmt.Errorf("%w: field with empty label", ErrInvalidRuleDocument)
		}
		if labels[f.Label] {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidRuleDocument, f.Label)
		}
		labels[f.Label] = true

		if !f.DataType.IsValid() {
			return fmt.Errorf("%w: field %q has unknown data type %q", ErrInvalidRuleDocument, f.Label, f.DataType)
		}
		if !typeNames[f.Source.DocumentType] {
			return fmt.Errorf("%w: field %q references unknown document type %q",
				ErrInvalidRuleDocument, f.Label, f.Source.DocumentType)
		}
		if err := validateExtraction(f); err != nil {
			return err
		}
		for _, p := range f.PostProcess {
			if !p.IsValid() {
				return fmt.Errorf("%w: field %q has unknown post-process step %q",
					ErrInvalidRuleDocument, f.Label, p)
			}
		}
		if f.DataType == DataEnum && len(f.Choices) == 0 {
			return fmt.Errorf("%w: enum field %q has no choices", ErrInvalidRuleDocument, f.Label)
		}
	}

	for fieldLabel, table := range d.Aliases {
		if !labels[fieldLabel] {
			return fmt.Errorf("%w: alias table for unknown field %q", ErrInvalidRuleDocument, fieldLabel)
		}
		if len(table) == 0 {
			return fmt.Errorf("%w: empty alias table for field %q", ErrInvalidRuleDocument, fieldLabel)
		}
	}

	return nil
}

func validateExtraction(f FieldRule) error {
	ex := f.Source.Extraction
	if !ex.Method.IsValid() {
		return fmt.Errorf("%w: field %q has unknown extraction method %q",
			ErrInvalidRuleDocument, f.Label, ex.Method)
	}

	switch ex.Method {
	case MethodHorizontalKeyValue, MethodVerticalKeyValue, MethodAmount, MethodDate:
		if ex.Key == "" {
			return fmt.Errorf("%w: field %q method %q requires an anchor key",
				ErrInvalidRuleDocument, f.Label, ex.Method)
		}
	case MethodRegex:
		if ex.Pattern == "" {
			return fmt.Errorf("%w: field %q regex method requires a pattern", ErrInvalidRuleDocument, f.Label)
		}
	case MethodTableFirstRow:
		if ex.TableMarker == "" {
			return fmt.Errorf("%w: field %q table method requires a marker", ErrInvalidRuleDocument, f.Label)
		}
		if ex.Column < 0 {
			return fmt.Errorf("%w: field %q table column must not be negative", ErrInvalidRuleDocument, f.Label)
		}
	case MethodFixedValue:
		if ex.Value == "" && len(ex.Cases) == 0 {
			return fmt.Errorf("%w: field %q fixed method requires a value or cases", ErrInvalidRuleDocument, f.Label)
		}
		for _, c := range ex.Cases {
			if c.Match != "filename" && c.Match != "content" {
				return fmt.Errorf("%w: field %q fixed case match must be filename or content, got %q",
					ErrInvalidRuleDocument, f.Label, c.Match)
			}
			if c.Contains == "" || c.Value == "" {
				return fmt.Errorf("%w: field %q fixed case needs contains and value", ErrInvalidRuleDocument, f.Label)
			}
		}
	}

	if ex.Pattern != "" {
		if _, err := regexp.Compile(ex.Pattern); err != nil {
			return fmt.Errorf("%w: field %q pattern does not compile: %v", ErrInvalidRuleDocument, f.Label, err)
		}
	}
	if ex.MaxDistance < 0 {
		return fmt.Errorf("%w: field %q max_distance must not be negative", ErrInvalidRuleDocument, f.Label)
	}

	return nil
}

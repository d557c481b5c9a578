// Package extract resolves configured business fields from decoded PDF
// documents. Each field is driven by a rule from the rule document and
// resolved through an ordered chain of strategies, preferring spatial cell
// lookups and falling back to plain-text patterns. Values that cannot be
// safely auto-resolved are downgraded to manual confirmation, never
// silently dropped.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/huangfeng15/taizhang-sub000/internal/canonical"
	"github.com/huangfeng15/taizhang-sub000/internal/decoder"
	"github.com/huangfeng15/taizhang-sub000/internal/geometry"
	"github.com/huangfeng15/taizhang-sub000/internal/rules"
)

// FieldValue is one resolved field: its canonical value and the document
// type it was sourced from. Set is false while the field is unset.
type FieldValue struct {
	Label        string `json:"label"`
	Value        string `json:"value"`
	Set          bool   `json:"set"`
	DocumentType string `json:"document_type,omitempty"`
}

// Confirmation is a field routed to manual review: the raw value that
// could not be auto-resolved, a human-readable reason, and, for enum
// fields, the full choice list as suggestions.
type Confirmation struct {
	Field       string   `json:"field"`
	RawValue    string   `json:"raw_value"`
	Reason      string   `json:"reason"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Result collects one document's extraction outcome.
type Result struct {
	DocumentType  string
	Path          string
	Values        map[string]FieldValue
	Confirmations []Confirmation
}

// Engine resolves fields using a rule document. The strategy for every
// field is resolved into a typed chain when the engine is built, so an
// unknown method name fails construction rather than extraction.
type Engine struct {
	ruleDoc  *rules.Document
	provider decoder.Provider
	chains   map[string][]resolver
}

// NewEngine builds the per-field resolver chains for the rule document.
func NewEngine(ruleDoc *rules.Document, provider decoder.Provider) (*Engine, error) {
	if err := ruleDoc.Validate(); err != nil {
		return nil, err
	}

	chains := make(map[string][]resolver, len(ruleDoc.Fields))
	for _, f := range ruleDoc.Fields {
		chain, err := buildChain(f)
		if err != nil {
			return nil, err
		}
		chains[f.Label] = chain
	}

	return &Engine{ruleDoc: ruleDoc, provider: provider, chains: chains}, nil
}

// Extract resolves every field sourced from documentType against the
// document at path. Fields whose rules name a different source type are
// not touched; fields whose anchors are missing stay unset.
func (e *Engine) Extract(path, documentType string) (*Result, error) {
	doc, err := e.provider.Decode(path)
	if err != nil {
		return nil, fmt.Errorf("extract from %s: %w", path, err)
	}

	idx := geometry.Build(doc.Cells)
	dctx := &docContext{
		path:     path,
		filename: filepath.Base(path),
		index:    idx,
		text:     idx.Text(),
	}

	result := &Result{
		DocumentType: documentType,
		Path:         path,
		Values:       make(map[string]FieldValue),
	}

	for _, field := range e.ruleDoc.FieldsForType(documentType) {
		raw, err := e.resolveRaw(field, dctx)
		if err != nil {
			// A missing anchor is not an error condition for the
			// document; the field simply stays unset.
			var anchorErr *AnchorError
			if errors.As(err, &anchorErr) {
				continue
			}
			return nil, err
		}

		value, conf := e.finishField(field, raw)
		if conf != nil {
			result.Confirmations = append(result.Confirmations, *conf)
			continue
		}
		result.Values[field.Label] = FieldValue{
			Label:        field.Label,
			Value:        value,
			Set:          true,
			DocumentType: documentType,
		}
	}

	return result, nil
}

// resolveRaw walks the field's strategy chain until one yields a value.
func (e *Engine) resolveRaw(field rules.FieldRule, dctx *docContext) (string, error) {
	for _, r := range e.chains[field.Label] {
		raw, ok := r.resolve(dctx)
		if ok {
			return raw, nil
		}
	}
	return "", &AnchorError{Field: field.Label, Key: field.Source.Extraction.Key}
}

// finishField runs post-processing and validation over a raw value. It
// returns either the canonical value or a manual confirmation, never both.
func (e *Engine) finishField(field rules.FieldRule, raw string) (string, *Confirmation) {
	value := raw

	for _, step := range effectiveSteps(field) {
		var conf *Confirmation
		value, conf = e.applyStep(field, step, raw, value)
		if conf != nil {
			return "", conf
		}
	}

	if reason := validateValue(field, value); reason != "" {
		return "", &Confirmation{Field: field.Label, RawValue: raw, Reason: reason}
	}

	return value, nil
}

func (e *Engine) applyStep(field rules.FieldRule, step rules.PostProcess, raw, value string) (string, *Confirmation) {
	switch step {
	case rules.PostTrim:
		return strings.TrimSpace(value), nil

	case rules.PostCleanSpace:
		return canonical.CleanSpace(value), nil

	case rules.PostParseAmount:
		d, err := canonical.ParseAmount(value)
		if err != nil {
			return "", &Confirmation{Field: field.Label, RawValue: raw, Reason: err.Error()}
		}
		return canonical.FormatAmount(d), nil

	case rules.PostParseDate:
		t, err := canonical.ParseDate(value)
		if err != nil {
			return "", &Confirmation{Field: field.Label, RawValue: raw, Reason: err.Error()}
		}
		return canonical.FormatDate(t), nil

	case rules.PostMapEnum:
		mapped, err := canonical.MapToEnum(field.Label, value, field.Choices, e.ruleDoc.AliasesFor(field.Label))
		if err != nil {
			var enumErr *canonical.EnumError
			if errors.As(err, &enumErr) {
				return "", &Confirmation{
					Field:       field.Label,
					RawValue:    raw,
					Reason:      enumErr.Error(),
					Suggestions: enumErr.Suggestions,
				}
			}
			return "", &Confirmation{Field: field.Label, RawValue: raw, Reason: err.Error()}
		}
		return mapped, nil

	default:
		// Unknown steps are rejected at rule load; reaching here means a
		// rule slipped past validation.
		return "", &Confirmation{Field: field.Label, RawValue: raw, Reason: fmt.Sprintf("unknown post-process step %q", step)}
	}
}

// effectiveSteps guarantees the conversions the field's method and data
// type imply, even when the rule author omitted them: amount and date
// strategies always route through their parser, enum fields always map.
func effectiveSteps(field rules.FieldRule) []rules.PostProcess {
	steps := append([]rules.PostProcess(nil), field.PostProcess...)

	has := func(p rules.PostProcess) bool {
		for _, s := range steps {
			if s == p {
				return true
			}
		}
		return false
	}

	if field.Source.Extraction.Method == rules.MethodAmount && !has(rules.PostParseAmount) {
		steps = append(steps, rules.PostParseAmount)
	}
	if field.Source.Extraction.Method == rules.MethodDate && !has(rules.PostParseDate) {
		steps = append(steps, rules.PostParseDate)
	}
	if field.DataType == rules.DataEnum && !has(rules.PostMapEnum) {
		steps = append(steps, rules.PostMapEnum)
	}

	return steps
}

// Merge folds src into dst under the single-source-per-field policy: a
// field already set is never overwritten, and confirmations accumulate in
// processing order. Callers must invoke it from a single goroutine.
func Merge(dst, src *Result) {
	if dst.Values == nil {
		dst.Values = make(map[string]FieldValue)
	}
	for label, v := range src.Values {
		if existing, ok := dst.Values[label]; ok && existing.Set {
			continue
		}
		dst.Values[label] = v
	}
	dst.Confirmations = append(dst.Confirmations, src.Confirmations...)
}

// ExtractAll runs Extract for every document in assignments (document type
// to path), merging sequentially in the rule document's type order so the
// outcome does not depend on map iteration.
func (e *Engine) ExtractAll(assignments map[string]string) (*Result, error) {
	merged := &Result{Values: make(map[string]FieldValue)}

	for _, typeName := range e.ruleDoc.TypeNames() {
		path, ok := assignments[typeName]
		if !ok {
			continue
		}
		res, err := e.Extract(path, typeName)
		if err != nil {
			return nil, err
		}
		Merge(merged, res)
	}

	return merged, nil
}

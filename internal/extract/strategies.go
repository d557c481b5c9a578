package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"

	"github.com/huangfeng15/taizhang-sub000/internal/geometry"
	"github.com/huangfeng15/taizhang-sub000/internal/rules"
)

const (
	defaultRightDistance = 200.0
	defaultBelowDistance = 100.0
)

// docContext carries one decoded document through a field's resolver
// chain: its spatial index, joined text and filename.
type docContext struct {
	path     string
	filename string
	index    *geometry.Index
	text     string
}

// resolver is one strategy in a field's ordered fallback chain. It either
// yields a raw value or passes to the next strategy.
type resolver interface {
	resolve(dctx *docContext) (string, bool)
}

// buildChain turns a field rule into its resolver chain. Spatial
// strategies are tried before the plain-text pattern fallback; strategies
// without a spatial component stand alone.
func buildChain(f rules.FieldRule) ([]resolver, error) {
	ex := f.Source.Extraction

	switch ex.Method {
	case rules.MethodHorizontalKeyValue:
		return []resolver{
			&rightOfAnchor{key: ex.Key, maxDistance: distanceOr(ex.MaxDistance, defaultRightDistance)},
			newKeyPattern(ex.Key, ex.Pattern),
		}, nil

	case rules.MethodVerticalKeyValue:
		return []resolver{
			&belowAnchor{key: ex.Key, maxDistance: distanceOr(ex.MaxDistance, defaultBelowDistance)},
			newKeyPattern(ex.Key, ex.Pattern),
		}, nil

	case rules.MethodAmount, rules.MethodDate:
		// Anchor resolution mirrors the horizontal key-value strategy;
		// the captured raw string is routed through the amount or date
		// post-processor afterwards.
		return []resolver{
			&rightOfAnchor{key: ex.Key, maxDistance: distanceOr(ex.MaxDistance, defaultRightDistance)},
			&belowAnchor{key: ex.Key, maxDistance: distanceOr(ex.MaxDistance, defaultBelowDistance)},
			newKeyPattern(ex.Key, ex.Pattern),
		}, nil

	case rules.MethodRegex:
		re, err := regexp.Compile(ex.Pattern)
		if err != nil {
			return nil, err
		}
		return []resolver{&textPattern{re: re}}, nil

	case rules.MethodTableFirstRow:
		return []resolver{&tableFirstRow{marker: ex.TableMarker, column: ex.Column}}, nil

	case rules.MethodFixedValue:
		return []resolver{&fixedValue{value: ex.Value, cases: ex.Cases}}, nil

	default:
		// Unreachable for documents that passed rule validation.
		return nil, &AnchorError{Field: f.Label, Key: string(ex.Method)}
	}
}

func distanceOr(configured, fallback float64) float64 {
	if configured > 0 {
		return configured
	}
	return fallback
}

// rightOfAnchor finds the anchor cell by key text and takes the nearest
// cell to its right. When the decode pass merged key and value into one
// cell ("项目名称：测试项目"), the value is split out of the anchor itself.
type rightOfAnchor struct {
	key         string
	maxDistance float64
}

func (r *rightOfAnchor) resolve(dctx *docContext) (string, bool) {
	anchor, ok := dctx.index.FindByText(r.key, true)
	if !ok {
		return "", false
	}
	if inline, ok := splitInline(anchor.Text, r.key); ok {
		return inline, true
	}
	cell, ok := dctx.index.FindRight(anchor, r.maxDistance)
	if !ok {
		return "", false
	}
	return cell.Text, true
}

// belowAnchor is the vertical mirror of rightOfAnchor.
type belowAnchor struct {
	key         string
	maxDistance float64
}

func (b *belowAnchor) resolve(dctx *docContext) (string, bool) {
	anchor, ok := dctx.index.FindByText(b.key, true)
	if !ok {
		return "", false
	}
	if inline, ok := splitInline(anchor.Text, b.key); ok {
		return inline, true
	}
	cell, ok := dctx.index.FindBelow(anchor, b.maxDistance)
	if !ok {
		return "", false
	}
	return cell.Text, true
}

// splitInline extracts the value portion of a cell that holds both the key
// and its value, separated by an optional half- or full-width colon.
func splitInline(cellText, key string) (string, bool) {
	text := strings.TrimSpace(cellText)
	pos := strings.Index(text, key)
	if pos < 0 {
		return "", false
	}
	rest := strings.TrimLeft(text[pos+len(key):], ":： \t　")
	if rest == "" {
		return "", false
	}
	return rest, true
}

// textPattern applies a regex to the document's joined text. With a
// capture group the first group wins, otherwise the whole match.
type textPattern struct {
	re *regexp.Regexp
}

func (t *textPattern) resolve(dctx *docContext) (string, bool) {
	m := t.re.FindStringSubmatch(dctx.text)
	if m == nil {
		return "", false
	}
	if len(m) > 1 && m[1] != "" {
		return m[1], true
	}
	return m[0], true
}

// newKeyPattern builds the plain-text fallback for key-value strategies:
// the key, an optional half- or full-width colon, then a capture up to the
// next delimiter. An explicit pattern on the rule overrides the generated
// one.
func newKeyPattern(key, override string) resolver {
	if override != "" {
		if re, err := regexp.Compile(override); err == nil {
			return &textPattern{re: re}
		}
	}
	// Accept the half-width form of a full-width key and vice versa.
	folded := width.Narrow.String(key)
	expr := "(?:" + regexp.QuoteMeta(key)
	if folded != key {
		expr += "|" + regexp.QuoteMeta(folded)
	}
	expr += `)\s*[:：]?\s*([^\s，。；、]+)`
	return &textPattern{re: regexp.MustCompile(expr)}
}

// tableFirstRow locates the header row containing the marker text and
// returns the configured column of the first data row beneath it.
type tableFirstRow struct {
	marker string
	column int
}

func (t *tableFirstRow) resolve(dctx *docContext) (string, bool) {
	marker, ok := dctx.index.FindByText(t.marker, true)
	if !ok {
		return "", false
	}

	tol := dctx.index.ToleranceY()
	rows := dctx.index.RowsOnPage(marker.Page)
	for i, row := range rows {
		if row.CenterY < marker.CenterY()-tol {
			continue
		}
		// This row holds the marker; the next row is the first data row.
		if i+1 >= len(rows) {
			return "", false
		}
		data := rows[i+1]
		if t.column >= len(data.Cells) {
			return "", false
		}
		return data.Cells[t.column].Text, true
	}

	return "", false
}

// fixedValue returns a constant, optionally selected by a filename or
// content condition.
type fixedValue struct {
	value string
	cases []rules.FixedCase
}

func (f *fixedValue) resolve(dctx *docContext) (string, bool) {
	for _, c := range f.cases {
		switch c.Match {
		case "filename":
			if strings.Contains(dctx.filename, c.Contains) {
				return c.Value, true
			}
		case "content":
			if strings.Contains(dctx.text, c.Contains) {
				return c.Value, true
			}
		}
	}
	if f.value != "" {
		return f.value, true
	}
	return "", false
}

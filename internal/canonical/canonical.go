// Package canonical converts raw extracted strings into typed values:
// fixed-point amounts, calendar dates, and members of closed choice lists.
// Unresolvable enum values are surfaced with suggestions instead of failing,
// since guessing is unacceptable for compliance data.
package canonical

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// Kind identifies which typed conversion failed.
type Kind string

const (
	KindAmount Kind = "amount"
	KindDate   Kind = "date"
)

// ParseError reports a raw value that could not be converted to its typed
// form. The raw string is preserved for the manual-confirmation list.
type ParseError struct {
	Kind Kind
	Raw  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot parse %s value %q: %v", e.Kind, e.Raw, e.Err)
	}
	return fmt.Sprintf("cannot parse %s value %q", e.Kind, e.Raw)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Fold converts full-width characters to their half-width equivalents, so
// "１２３４．５" and "￥" compare like "1234.5" and "¥".
func Fold(s string) string {
	return width.Narrow.String(s)
}

// CleanSpace trims the string and collapses any internal whitespace run
// (including ideographic spaces) into a single ASCII space.
func CleanSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// StripSpace removes all whitespace from the string.
func StripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

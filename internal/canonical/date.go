package canonical

import (
	"fmt"
	"time"
)

// dateLayouts are tried in order against the folded, trimmed raw value.
// Datetime layouts come first so their date portion is not truncated by a
// shorter prefix match.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"2006.01.02",
	"2006年01月02日 15:04",
	"2006年01月02日",
	"2006年1月2日",
}

// ParseDate normalizes a recognized date or datetime string to a calendar
// date, discarding any time of day.
func ParseDate(raw string) (time.Time, error) {
	s := CleanSpace(Fold(raw))
	if s == "" {
		return time.Time{}, &ParseError{Kind: KindDate, Raw: raw, Err: fmt.Errorf("empty value")}
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}

	return time.Time{}, &ParseError{
		Kind: KindDate,
		Raw:  raw,
		Err:  fmt.Errorf("no recognized date format"),
	}
}

// FormatDate renders a calendar date in ISO form, the canonical form stored
// on extraction results.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

package canonical

import "fmt"

// EnumError reports a value that is neither a canonical choice nor a known
// alias. It carries the original raw value and the full choice list as
// suggestions for the manual reviewer; it is a terminal, recoverable state,
// never a hard failure.
type EnumError struct {
	Field       string
	Raw         string
	Suggestions []string
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("value %q for field %q is not an approved choice", e.Raw, e.Field)
}

// MapToEnum maps a raw extracted value onto one of the canonical choices,
// directly or through the alias table. The mapping is idempotent: a value
// that already is a canonical choice is returned unchanged.
func MapToEnum(field, raw string, choices []string, aliases map[string]string) (string, error) {
	normalized := StripSpace(Fold(raw))

	for _, choice := range choices {
		if normalized == StripSpace(Fold(choice)) {
			return choice, nil
		}
	}

	for alias, choice := range aliases {
		if normalized == StripSpace(Fold(alias)) {
			return choice, nil
		}
	}

	return "", &EnumError{
		Field:       field,
		Raw:         raw,
		Suggestions: append([]string(nil), choices...),
	}
}

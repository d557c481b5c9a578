package extract

import (
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/huangfeng15/taizhang-sub000/internal/rules"
)

// validateValue checks a canonical value against the field's validation
// rules. It returns an empty string when the value passes, or a
// human-readable reason for the manual-confirmation list.
func validateValue(field rules.FieldRule, value string) string {
	v := field.Validation

	if v.NonEmpty && value == "" {
		return "value is empty"
	}
	if v.MaxLength > 0 && utf8.RuneCountInString(value) > v.MaxLength {
		return fmt.Sprintf("value exceeds %d characters", v.MaxLength)
	}

	if v.Positive || v.Min != nil || v.Max != nil {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Sprintf("value %q is not numeric", value)
		}
		if v.Positive && d.Sign() <= 0 {
			return fmt.Sprintf("value %s is not positive", d)
		}
		if v.Min != nil && d.LessThan(decimal.NewFromFloat(*v.Min)) {
			return fmt.Sprintf("value %s is below the minimum %v", d, *v.Min)
		}
		if v.Max != nil && d.GreaterThan(decimal.NewFromFloat(*v.Max)) {
			return fmt.Sprintf("value %s is above the maximum %v", d, *v.Max)
		}
	}

	return ""
}

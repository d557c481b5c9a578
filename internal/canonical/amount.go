package canonical

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// currencyMarkers are stripped before numeric parsing. Longer markers first
// so "人民币" is removed before the bare "币" would be left behind.
var currencyMarkers = []string{"人民币", "RMB", "CNY", "￥", "¥", "$", "元整", "元"}

var tenThousand = decimal.NewFromInt(10000)

// ParseAmount strips currency symbols and thousands separators from raw and
// parses the residue as a fixed-point decimal. A trailing 万/万元 unit
// multiplies by ten thousand, a convention common in procurement notices.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := CleanSpace(Fold(raw))
	if s == "" {
		return decimal.Zero, &ParseError{Kind: KindAmount, Raw: raw, Err: fmt.Errorf("empty value")}
	}

	scale := decimal.NewFromInt(1)
	for _, unit := range []string{"万元", "万"} {
		if strings.HasSuffix(s, unit) {
			s = strings.TrimSuffix(s, unit)
			scale = tenThousand
			break
		}
	}

	for _, marker := range currencyMarkers {
		s = strings.ReplaceAll(s, marker, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = StripSpace(s)

	if s == "" {
		return decimal.Zero, &ParseError{Kind: KindAmount, Raw: raw, Err: fmt.Errorf("no numeric residue")}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ParseError{Kind: KindAmount, Raw: raw, Err: err}
	}

	return d.Mul(scale), nil
}

// FormatAmount renders an amount with two decimal places, the canonical
// form stored on extraction results.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice converts user-formatted price strings into a decimal.
// Accepts common spreadsheet formats like:
//   - "1234.56"
//   - "R$ 1.234,56"
//   - "1,234.56"
//   - "R$ -20,00"
//
// Keeps digits, a decimal separator, and a leading '-' only.
func ParsePrice(value string) (decimal.Decimal, error) {
	s := strings.TrimSpace(value)
	if s != "" {
		s = strings.ReplaceAll(s, "R$", "")
		s = strings.ReplaceAll(s, "r$", "")
		s = strings.ReplaceAll(s, "BRL", "")
		s = strings.TrimSpace(s)
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}

	// Decide which of '.' and ',' is the decimal separator: whichever
	// appears last. The other one is a thousands separator. A lone comma
	// followed by exactly three digits ("20,000", "1,500") is grouping,
	// not a BR decimal; BR decimals carry one or two digits ("99,90").
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	commaIsDecimal := lastComma > lastDot
	if commaIsDecimal && lastDot == -1 {
		intPart := strings.TrimSpace(s[:strings.Index(s, ",")])
		if strings.Count(s, ",") > 1 {
			commaIsDecimal = false
		} else if countTrailingDigits(s, lastComma) == 3 && intPart != "" && intPart != "0" {
			// a grouped integer never starts with a bare zero
			commaIsDecimal = false
		}
	}
	if commaIsDecimal {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	// Strip everything except digits and '.'.
	var b strings.Builder
	b.Grow(len(s) + 1)
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "" {
		return decimal.NewFromInt(0), fmt.Errorf("invalid value")
	}
	if neg {
		clean = "-" + clean
	}

	val, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.NewFromInt(0), err
	}
	return val, nil
}

func countTrailingDigits(s string, sep int) int {
	n := 0
	for _, r := range s[sep+1:] {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

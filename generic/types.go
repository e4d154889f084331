package generic

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS - decimal quantities
// =============================================================================

// Hours are kept as decimal.Decimal end to end so sums like 7.5 * 21 and
// 37.5 - 5 stay exact. Rounding is the presentation layer's concern.

var thousandsGrouped = regexp.MustCompile(`^[-+]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// ParseHours parses an hours cell. Empty cells are zero. Commas are accepted
// only as thousands separators ("1,250.5"); a decimal comma ("7,5") is an error.
func ParseHours(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") {
		if !thousandsGrouped.MatchString(s) {
			return decimal.Zero, fmt.Errorf("ambiguous comma in %q", s)
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	return decimal.NewFromString(s)
}

// FloorZero returns max(d, 0).
func FloorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Sum adds a slice of decimals.
func Sum(values []decimal.Decimal) decimal.Decimal {
	return lo.Reduce(values, func(acc decimal.Decimal, v decimal.Decimal, _ int) decimal.Decimal {
		return acc.Add(v)
	}, decimal.Zero)
}

// Ratio returns num/den, or zero when den is not positive.
func Ratio(num, den decimal.Decimal) decimal.Decimal {
	if !den.IsPositive() {
		return decimal.Zero
	}
	return num.DivRound(den, 6)
}

package catalog

import (
	"regexp"
	"strconv"
)

// Tax rates are stored as free text ("15%", "tax 15.5 percent") because the
// source data carries arbitrary trailing annotations.
var taxRatePattern = regexp.MustCompile(`\d+\.?\d*`)

// ParseTaxRate extracts the first run of digits (optional single decimal
// point) anywhere in s and returns it as a percentage value. Empty input or
// input without digits parses as 0. The extraction is deliberately lenient
// and locale naive; stored rate strings rely on it staying that way.
func ParseTaxRate(s string) float64 {
	if s == "" {
		return 0
	}
	match := taxRatePattern.FindString(s)
	if match == "" {
		return 0
	}
	rate, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return rate
}

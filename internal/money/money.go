// Package money normalizes the heterogeneous currency representations found
// in the legacy data: plain numbers, "$0", "-$17,800", "17.50" and so on.
package money

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a currency-like string into a decimal amount.
// Commas are treated as thousands separators and stripped; everything except
// digits, '.' and '-' is removed before parsing. Empty or unparseable input
// yields zero, never an error.
func ParseAmount(value string) decimal.Decimal {
	s := strings.TrimSpace(value)
	if s == "" {
		return decimal.Zero
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		}
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseJSONAmount parses a raw JSON value that may be a number, a
// currency-like string, or null. Missing and null values yield zero.
func ParseJSONAmount(raw json.RawMessage) decimal.Decimal {
	if len(raw) == 0 {
		return decimal.Zero
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseAmount(s)
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return ParseAmount(n.String())
	}

	return decimal.Zero
}

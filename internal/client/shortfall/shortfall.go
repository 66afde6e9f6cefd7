// Package shortfall is the one place that reads the funding gap out of the
// payroll service's "Required: X, Available: Y" messages.
package shortfall

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var pattern = regexp.MustCompile(`Required:\s*(-?[0-9][0-9,]*(?:\.[0-9]+)?)\s*,\s*Available:\s*(-?[0-9][0-9,]*(?:\.[0-9]+)?)`)

type Shortfall struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

// Amount is Required minus Available rounded up to the cent, never negative.
func (s Shortfall) Amount() decimal.Decimal {
	gap := s.Required.Sub(s.Available)
	if !gap.IsPositive() {
		return decimal.Zero
	}
	return gap.RoundCeil(2)
}

// Parse extracts the amounts from msg. Thousands separators are accepted.
func Parse(msg string) (Shortfall, bool) {
	m := pattern.FindStringSubmatch(msg)
	if m == nil {
		return Shortfall{}, false
	}

	required, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return Shortfall{}, false
	}
	available, err := decimal.NewFromString(strings.ReplaceAll(m[2], ",", ""))
	if err != nil {
		return Shortfall{}, false
	}
	return Shortfall{Required: required, Available: available}, true
}

// Combine folds per-item failures into one gap: the sum of what each failed
// item required against what the account holds now.
func Combine(reasons []string, balance decimal.Decimal) (Shortfall, bool) {
	total := decimal.Zero
	found := false
	for _, r := range reasons {
		s, ok := Parse(r)
		if !ok {
			continue
		}
		total = total.Add(s.Required)
		found = true
	}
	if !found {
		return Shortfall{}, false
	}
	return Shortfall{Required: total, Available: balance}, true
}

package salary

import "github.com/shopspring/decimal"

// CentPlaces is the precision of every stored money amount.
const CentPlaces = 2

// IsCents reports whether d has no digits below the cent.
func IsCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(CentPlaces))
}

// RoundCents rounds half away from zero to the cent.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(CentPlaces)
}

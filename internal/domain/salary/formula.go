// Package salary holds the grade-based salary formula shared by the backend
// and the client core.
package salary

import (
	"github.com/shopspring/decimal"
)

const (
	MinRank = 1
	MaxRank = 6
)

// Policy parameterises the formula. The zero value is not usable; start from
// DefaultPolicy.
type Policy struct {
	Increment     decimal.Decimal
	HouseRentRate decimal.Decimal
	MedicalRate   decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		Increment:     decimal.NewFromInt(5000),
		HouseRentRate: decimal.RequireFromString("0.20"),
		MedicalRate:   decimal.RequireFromString("0.15"),
	}
}

type Breakdown struct {
	Basic            decimal.Decimal `json:"basic"`
	HouseRent        decimal.Decimal `json:"houseRent"`
	MedicalAllowance decimal.Decimal `json:"medicalAllowance"`
	Gross            decimal.Decimal `json:"gross"`
}

// Compute returns the breakdown for rank with the given grade-6 basic.
// Rank 1 is the highest paid. Each allowance is rounded to the cent and gross
// is their exact sum, so every amount fits a 2-place money column.
func (p Policy) Compute(rank int, baseGrade6 decimal.Decimal) (Breakdown, error) {
	if rank < MinRank || rank > MaxRank {
		return Breakdown{}, &InvalidGradeError{Rank: rank}
	}
	if !baseGrade6.IsPositive() {
		return Breakdown{}, ErrInvalidBaseSalary
	}
	if !IsCents(baseGrade6) {
		return Breakdown{}, ErrSubCentAmount
	}

	steps := decimal.NewFromInt(int64(MaxRank - rank))
	basic := baseGrade6.Add(steps.Mul(p.Increment))
	houseRent := RoundCents(basic.Mul(p.HouseRentRate))
	medical := RoundCents(basic.Mul(p.MedicalRate))

	return Breakdown{
		Basic:            basic,
		HouseRent:        houseRent,
		MedicalAllowance: medical,
		Gross:            basic.Add(houseRent).Add(medical),
	}, nil
}

// Total sums gross salary over ranks, one entry per employee.
func (p Policy) Total(ranks []int, baseGrade6 decimal.Decimal) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, r := range ranks {
		b, err := p.Compute(r, baseGrade6)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(b.Gross)
	}
	return total, nil
}

// Validate rejects policies that would produce negative or shrinking pay.
func (p Policy) Validate() error {
	if p.Increment.IsNegative() || p.HouseRentRate.IsNegative() || p.MedicalRate.IsNegative() {
		return ErrInvalidPolicy
	}
	if !IsCents(p.Increment) {
		return ErrSubCentAmount
	}
	return nil
}

// Compute applies DefaultPolicy.
func Compute(rank int, baseGrade6 decimal.Decimal) (Breakdown, error) {
	return DefaultPolicy().Compute(rank, baseGrade6)
}

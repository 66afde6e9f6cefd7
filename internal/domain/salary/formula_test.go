package salary

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_Grade6AtBase(t *testing.T) {
	b, err := Compute(6, decimal.NewFromInt(25000))
	require.NoError(t, err)

	assert.True(t, b.Basic.Equal(decimal.NewFromInt(25000)))
	assert.True(t, b.HouseRent.Equal(decimal.NewFromInt(5000)))
	assert.True(t, b.MedicalAllowance.Equal(decimal.NewFromInt(3750)))
	assert.True(t, b.Gross.Equal(decimal.NewFromInt(33750)))
}

func TestCompute_Grade1(t *testing.T) {
	b, err := Compute(1, decimal.NewFromInt(25000))
	require.NoError(t, err)

	assert.Equal(t, "50000", b.Basic.String())
	assert.Equal(t, "67500", b.Gross.String())
}

func TestCompute_GrossIs135PercentOfBasic(t *testing.T) {
	ratio := decimal.RequireFromString("1.35")
	for _, base := range []int64{1, 999, 25000, 31337} {
		for rank := MinRank; rank <= MaxRank; rank++ {
			b, err := Compute(rank, decimal.NewFromInt(base))
			require.NoError(t, err)
			assert.True(t, b.Gross.Equal(b.Basic.Mul(ratio)), "rank %d base %d", rank, base)
		}
	}
}

func TestCompute_LowerRankPaysMore(t *testing.T) {
	base := decimal.NewFromInt(18000)
	for r1 := MinRank; r1 <= MaxRank; r1++ {
		for r2 := r1 + 1; r2 <= MaxRank; r2++ {
			b1, err := Compute(r1, base)
			require.NoError(t, err)
			b2, err := Compute(r2, base)
			require.NoError(t, err)
			assert.True(t, b1.Basic.GreaterThan(b2.Basic), "rank %d vs %d", r1, r2)
		}
	}
}

func TestCompute_InvalidRank(t *testing.T) {
	for _, rank := range []int{0, 7, -1} {
		_, err := Compute(rank, decimal.NewFromInt(25000))
		var gradeErr *InvalidGradeError
		require.True(t, errors.As(err, &gradeErr), "rank %d", rank)
		assert.Equal(t, rank, gradeErr.Rank)
	}
}

func TestCompute_InvalidBase(t *testing.T) {
	_, err := Compute(3, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidBaseSalary)

	_, err = Compute(3, decimal.NewFromInt(-10))
	assert.ErrorIs(t, err, ErrInvalidBaseSalary)
}

func TestCompute_SubCentBase(t *testing.T) {
	_, err := Compute(3, decimal.RequireFromString("25000.001"))
	assert.ErrorIs(t, err, ErrSubCentAmount)
}

func TestCompute_RoundsAllowancesToCents(t *testing.T) {
	b, err := Compute(1, decimal.RequireFromString("25000.01"))
	require.NoError(t, err)
	assert.Equal(t, "50000.01", b.Basic.String())
	assert.Equal(t, "10000", b.HouseRent.String())
	assert.Equal(t, "7500", b.MedicalAllowance.String())
	assert.Equal(t, "67500.01", b.Gross.String())

	p := DefaultPolicy()
	p.HouseRentRate = decimal.RequireFromString("0.175")
	b, err = p.Compute(6, decimal.NewFromInt(999))
	require.NoError(t, err)
	assert.Equal(t, "174.83", b.HouseRent.String())
	assert.Equal(t, "1323.68", b.Gross.String())

	for rank := MinRank; rank <= MaxRank; rank++ {
		b, err := p.Compute(rank, decimal.RequireFromString("18333.33"))
		require.NoError(t, err)
		assert.True(t, IsCents(b.Gross), "rank %d gross %s", rank, b.Gross)
		assert.True(t, b.Gross.Equal(b.Basic.Add(b.HouseRent).Add(b.MedicalAllowance)))
	}
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())

	p := DefaultPolicy()
	p.Increment = decimal.RequireFromString("0.005")
	assert.ErrorIs(t, p.Validate(), ErrSubCentAmount)

	p = DefaultPolicy()
	p.MedicalRate = decimal.NewFromInt(-1)
	assert.ErrorIs(t, p.Validate(), ErrInvalidPolicy)
}

func TestPolicy_CustomIncrement(t *testing.T) {
	p := DefaultPolicy()
	p.Increment = decimal.NewFromInt(1000)

	b, err := p.Compute(4, decimal.NewFromInt(10000))
	require.NoError(t, err)
	assert.Equal(t, "12000", b.Basic.String())
}

func TestPolicy_Total(t *testing.T) {
	ranks := []int{1, 2, 3, 3, 4, 4, 5, 5, 6, 6}
	total, err := DefaultPolicy().Total(ranks, decimal.NewFromInt(25000))
	require.NoError(t, err)
	assert.Equal(t, "479250", total.String())

	_, err = DefaultPolicy().Total([]int{1, 9}, decimal.NewFromInt(25000))
	assert.Error(t, err)
}

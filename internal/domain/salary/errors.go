package salary

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidBaseSalary = errors.New("base salary must be a positive amount")
	ErrSubCentAmount     = errors.New("amount must have at most 2 decimal places")
	ErrInvalidPolicy     = errors.New("salary policy amounts must be non-negative")
)

type InvalidGradeError struct {
	Rank int
}

func (e *InvalidGradeError) Error() string {
	return fmt.Sprintf("invalid grade %d: must be between %d and %d", e.Rank, MinRank, MaxRank)
}

// Package grade enforces how many employees may hold each pay grade.
package grade

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/salary"
)

var ErrInvalidDistribution = errors.New("invalid grade distribution")

// Distribution caps the population of each rank plus the overall headcount.
type Distribution struct {
	Limits       map[int]int
	MaxHeadcount int
}

// DefaultDistribution is the business rule: ranks 1-2 hold one employee each,
// ranks 3-6 hold two each, ten employees in total.
func DefaultDistribution() Distribution {
	return Distribution{
		Limits:       map[int]int{1: 1, 2: 1, 3: 2, 4: 2, 5: 2, 6: 2},
		MaxHeadcount: 10,
	}
}

func (d Distribution) Validate() error {
	for rank := salary.MinRank; rank <= salary.MaxRank; rank++ {
		limit, ok := d.Limits[rank]
		if !ok || limit < 1 {
			return fmt.Errorf("%w: rank %d needs a positive limit", ErrInvalidDistribution, rank)
		}
	}
	for rank := range d.Limits {
		if rank < salary.MinRank || rank > salary.MaxRank {
			return fmt.Errorf("%w: unknown rank %d", ErrInvalidDistribution, rank)
		}
	}
	if d.MaxHeadcount < 1 || d.MaxHeadcount > d.Capacity() {
		return fmt.Errorf("%w: headcount %d outside 1..%d", ErrInvalidDistribution, d.MaxHeadcount, d.Capacity())
	}
	return nil
}

// Capacity is the sum of all rank limits.
func (d Distribution) Capacity() int {
	total := 0
	for _, limit := range d.Limits {
		total += limit
	}
	return total
}

// RequiredHeadcount is the exact number of employees a payroll batch needs.
func (d Distribution) RequiredHeadcount() int {
	return d.MaxHeadcount
}

func (d Distribution) Counts(ranks []int) map[int]int {
	counts := make(map[int]int, len(d.Limits))
	for _, r := range ranks {
		counts[r]++
	}
	return counts
}

// CanAssign reports whether targetRank has a free slot among current. On
// update the employee's previous rank is released first so they keep their own
// slot. A false result carries a message fit for a form field.
func (d Distribution) CanAssign(current []int, targetRank int, isUpdate bool, previousRank *int) (bool, string) {
	limit, ok := d.Limits[targetRank]
	if !ok {
		return false, fmt.Sprintf("Grade %d does not exist. Choose a grade between %d and %d.", targetRank, salary.MinRank, salary.MaxRank)
	}

	if !isUpdate && len(current) >= d.MaxHeadcount {
		return false, fmt.Sprintf("Maximum of %d employees reached.", d.MaxHeadcount)
	}

	counts := d.Counts(current)
	if isUpdate && previousRank != nil && counts[*previousRank] > 0 {
		counts[*previousRank]--
	}

	if counts[targetRank] >= limit {
		return false, fmt.Sprintf("Grade %d already has the maximum of %d employee%s.", targetRank, limit, plural(limit))
	}
	return true, ""
}

// Vacancies maps each rank with free slots to the number of free slots.
func (d Distribution) Vacancies(current []int) map[int]int {
	counts := d.Counts(current)
	out := make(map[int]int)
	for r, limit := range d.Limits {
		if free := limit - counts[r]; free > 0 {
			out[r] = free
		}
	}
	return out
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

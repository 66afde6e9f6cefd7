package directory

import (
	"errors"
	"sort"
	"strings"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/employee"
)

var ErrNotLoaded = errors.New("employee directory not loaded")

// Query selects a local view of the roster. Zero values mean no search, any
// grade, code order, first page of 10.
type Query struct {
	Search  string
	Grade   int
	SortKey employee.SortKey
	Desc    bool
	Page    int
	Size    int
}

type Result struct {
	Items      []employee.EmployeeResponse
	Total      int
	Page       int
	Size       int
	TotalPages int
}

// Apply filters, sorts and pages roster. Ties are broken by grade then code.
func Apply(roster []employee.EmployeeResponse, q Query) (Result, error) {
	if q.SortKey == "" {
		q.SortKey = employee.SortByCode
	}
	if !q.SortKey.Valid() {
		return Result{}, employee.ErrInvalidSortKey
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Size < 1 {
		q.Size = 10
	}

	needle := strings.ToLower(strings.TrimSpace(q.Search))
	matched := make([]employee.EmployeeResponse, 0, len(roster))
	for _, e := range roster {
		if q.Grade != 0 && e.Grade != q.Grade {
			continue
		}
		if needle != "" && !matches(e, needle) {
			continue
		}
		matched = append(matched, e)
	}

	primary := compareBy(q.SortKey)
	sort.SliceStable(matched, func(i, j int) bool {
		if c := primary(matched[i], matched[j]); c != 0 {
			if q.Desc {
				return c > 0
			}
			return c < 0
		}
		return tieBreak(matched[i], matched[j]) < 0
	})

	res := Result{
		Total:      len(matched),
		Page:       q.Page,
		Size:       q.Size,
		TotalPages: (len(matched) + q.Size - 1) / q.Size,
	}
	start := (q.Page - 1) * q.Size
	if start < len(matched) {
		end := min(start+q.Size, len(matched))
		res.Items = matched[start:end]
	}
	return res, nil
}

func matches(e employee.EmployeeResponse, needle string) bool {
	return strings.Contains(strings.ToLower(e.Name), needle) ||
		strings.Contains(strings.ToLower(e.Code), needle) ||
		strings.Contains(strings.ToLower(e.Mobile), needle)
}

func compareBy(key employee.SortKey) func(a, b employee.EmployeeResponse) int {
	switch key {
	case employee.SortByName:
		return func(a, b employee.EmployeeResponse) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case employee.SortByGrade:
		return func(a, b employee.EmployeeResponse) int { return a.Grade - b.Grade }
	case employee.SortByBalance:
		return func(a, b employee.EmployeeResponse) int { return a.Account.Balance.Cmp(b.Account.Balance) }
	default:
		return func(a, b employee.EmployeeResponse) int { return strings.Compare(a.Code, b.Code) }
	}
}

func tieBreak(a, b employee.EmployeeResponse) int {
	if a.Grade != b.Grade {
		return a.Grade - b.Grade
	}
	return strings.Compare(a.Code, b.Code)
}

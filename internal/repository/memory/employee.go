package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/employee"
	"github.com/shopspring/decimal"
)

type employeeRepository struct {
	s *Store
}

func NewEmployeeRepository(s *Store) employee.EmployeeRepository {
	return &employeeRepository{s: s}
}

// checkUnique mirrors the unique constraints of the employees table.
func (r *employeeRepository) checkUnique(e employee.Employee) error {
	for _, other := range r.s.employees {
		if other.ID == e.ID {
			continue
		}
		if other.CompanyID == e.CompanyID && other.Code == e.Code {
			return employee.ErrEmployeeCodeExists
		}
		if other.Account.Number == e.Account.Number {
			return employee.ErrAccountNumberExists
		}
	}
	return nil
}

func (r *employeeRepository) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	defer r.s.lock(ctx)()

	if err := r.checkUnique(e); err != nil {
		return employee.Employee{}, err
	}

	now := r.s.now()
	e.ID = newID()
	e.CreatedAt, e.UpdatedAt = now, now
	r.s.employees[e.ID] = e
	return e, nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	defer r.s.lock(ctx)()

	e, ok := r.s.employees[id]
	if !ok || e.CompanyID != companyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *employeeRepository) GetByCode(ctx context.Context, companyID string, code string) (employee.Employee, error) {
	defer r.s.lock(ctx)()

	for _, e := range r.s.employees {
		if e.CompanyID == companyID && e.Code == code {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (r *employeeRepository) companyEmployees(companyID string) []employee.Employee {
	var out []employee.Employee
	for _, e := range r.s.employees {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	return out
}

func byGradeThenCode(a, b employee.Employee) int {
	if c := cmp.Compare(a.Grade, b.Grade); c != 0 {
		return c
	}
	return strings.Compare(a.Code, b.Code)
}

func (r *employeeRepository) List(ctx context.Context, companyID string, filter employee.EmployeeFilter) ([]employee.Employee, int64, error) {
	defer r.s.lock(ctx)()

	filter.Normalize()
	key, desc, err := filter.ParseSort()
	if err != nil {
		return nil, 0, err
	}

	all := r.companyEmployees(companyID)
	slices.SortFunc(all, func(a, b employee.Employee) int {
		var c int
		switch key {
		case employee.SortByCode:
			c = strings.Compare(a.Code, b.Code)
		case employee.SortByName:
			c = strings.Compare(a.Name, b.Name)
		case employee.SortByBalance:
			c = a.Account.Balance.Cmp(b.Account.Balance)
		default:
			c = cmp.Compare(a.Grade, b.Grade)
		}
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return byGradeThenCode(a, b)
	})

	return paginate(all, filter.Page, filter.Size), int64(len(all)), nil
}

func (r *employeeRepository) ListAll(ctx context.Context, companyID string) ([]employee.Employee, error) {
	defer r.s.lock(ctx)()

	all := r.companyEmployees(companyID)
	slices.SortFunc(all, byGradeThenCode)
	if all == nil {
		all = []employee.Employee{}
	}
	return all, nil
}

func (r *employeeRepository) Update(ctx context.Context, e employee.Employee) error {
	defer r.s.lock(ctx)()

	existing, ok := r.s.employees[e.ID]
	if !ok || existing.CompanyID != e.CompanyID {
		return employee.ErrEmployeeNotFound
	}
	if err := r.checkUnique(e); err != nil {
		return err
	}

	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = r.s.now()
	r.s.employees[e.ID] = e
	return nil
}

func (r *employeeRepository) Delete(ctx context.Context, id string, companyID string) error {
	defer r.s.lock(ctx)()

	e, ok := r.s.employees[id]
	if !ok || e.CompanyID != companyID {
		return employee.ErrEmployeeNotFound
	}
	delete(r.s.employees, id)
	return nil
}

func (r *employeeRepository) CreditAccount(ctx context.Context, id string, companyID string, amount decimal.Decimal) (decimal.Decimal, error) {
	defer r.s.lock(ctx)()

	e, ok := r.s.employees[id]
	if !ok || e.CompanyID != companyID {
		return decimal.Zero, employee.ErrEmployeeNotFound
	}
	e.Account.Balance = e.Account.Balance.Add(amount)
	e.UpdatedAt = r.s.now()
	r.s.employees[id] = e
	return e.Account.Balance, nil
}

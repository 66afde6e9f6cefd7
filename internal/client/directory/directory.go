// Package directory is the client view of the employee roster: a read-through
// cache over /employees, local pre-checks for the grade rules, and derived
// search/filter/sort views.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/payroll-disbursement/internal/client/api"
	"github.com/cmlabs-hris/payroll-disbursement/internal/client/store"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/grade"
)

const reloadPageSize = 100

// EmployeeAPI is the slice of the api client the directory needs.
type EmployeeAPI interface {
	ListEmployees(ctx context.Context, page, size int, sort string) (api.Page[employee.EmployeeResponse], error)
	GetEmployee(ctx context.Context, id string) (employee.EmployeeResponse, error)
	CreateEmployee(ctx context.Context, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error)
	UpdateEmployee(ctx context.Context, id string, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error)
	DeleteEmployee(ctx context.Context, id string) error
}

// RejectedError is a local pre-check failure. Reason is ready for display.
type RejectedError struct {
	Field  string
	Reason string
}

func (e *RejectedError) Error() string {
	reason := strings.TrimSuffix(e.Reason, ".")
	if reason != "" {
		reason = strings.ToLower(reason[:1]) + reason[1:]
	}
	return fmt.Sprintf("employee %s rejected: %s", e.Field, reason)
}

type Directory struct {
	api          EmployeeAPI
	state        *store.Store
	distribution grade.Distribution
}

func New(employeeAPI EmployeeAPI, state *store.Store, distribution grade.Distribution) *Directory {
	return &Directory{
		api:          employeeAPI,
		state:        state,
		distribution: distribution,
	}
}

// Reload fetches every page and replaces the cached roster.
func (d *Directory) Reload(ctx context.Context) ([]employee.EmployeeResponse, error) {
	var all []employee.EmployeeResponse
	for page := 1; ; page++ {
		p, err := d.api.ListEmployees(ctx, page, reloadPageSize, "")
		if err != nil {
			return nil, err
		}
		all = append(all, p.Items...)
		if len(p.Items) < reloadPageSize || page >= p.Meta.TotalPages {
			break
		}
	}

	d.state.ReplaceEmployees(all)
	slog.Debug("employee directory reloaded", "count", len(all))
	roster, _ := d.state.Employees()
	return roster, nil
}

// All returns the cached roster, loading it on first use.
func (d *Directory) All(ctx context.Context) ([]employee.EmployeeResponse, error) {
	if roster, ok := d.state.Employees(); ok {
		return roster, nil
	}
	return d.Reload(ctx)
}

// List passes a page request through to the service.
func (d *Directory) List(ctx context.Context, page, size int, sort string) (api.Page[employee.EmployeeResponse], error) {
	return d.api.ListEmployees(ctx, page, size, sort)
}

// Get serves from the cache and falls back to the service.
func (d *Directory) Get(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	if e, ok := d.state.Employee(id); ok {
		return e, nil
	}
	return d.api.GetEmployee(ctx, id)
}

func (d *Directory) Create(ctx context.Context, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	roster, err := d.All(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	if ok, reason := d.distribution.CanAssign(ranks(roster), req.Grade, false, nil); !ok {
		return employee.EmployeeResponse{}, &RejectedError{Field: "grade", Reason: reason}
	}
	if codeTaken(roster, req.Code, "") {
		return employee.EmployeeResponse{}, duplicateCode(req.Code)
	}

	created, err := d.api.CreateEmployee(ctx, req)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if _, err := d.Reload(ctx); err != nil {
		return created, err
	}
	return created, nil
}

func (d *Directory) Update(ctx context.Context, id string, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
	roster, err := d.All(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	var current *employee.EmployeeResponse
	for i := range roster {
		if roster[i].ID == id {
			current = &roster[i]
			break
		}
	}
	if current == nil {
		// stale cache: let the service decide
		return d.apply(ctx, id, req)
	}

	if req.Grade != nil {
		previous := current.Grade
		if ok, reason := d.distribution.CanAssign(ranks(roster), *req.Grade, true, &previous); !ok {
			return employee.EmployeeResponse{}, &RejectedError{Field: "grade", Reason: reason}
		}
	}
	if req.Code != nil && codeTaken(roster, *req.Code, id) {
		return employee.EmployeeResponse{}, duplicateCode(*req.Code)
	}
	return d.apply(ctx, id, req)
}

func (d *Directory) apply(ctx context.Context, id string, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
	updated, err := d.api.UpdateEmployee(ctx, id, req)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if _, err := d.Reload(ctx); err != nil {
		return updated, err
	}
	return updated, nil
}

func (d *Directory) Delete(ctx context.Context, id string) error {
	if err := d.api.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	_, err := d.Reload(ctx)
	return err
}

// View derives a page from the cached roster. It never calls the service.
func (d *Directory) View(q Query) (Result, error) {
	roster, ok := d.state.Employees()
	if !ok {
		return Result{}, ErrNotLoaded
	}
	return Apply(roster, q)
}

func ranks(roster []employee.EmployeeResponse) []int {
	out := make([]int, 0, len(roster))
	for _, e := range roster {
		out = append(out, e.Grade)
	}
	return out
}

func codeTaken(roster []employee.EmployeeResponse, code, exceptID string) bool {
	for _, e := range roster {
		if e.Code == code && e.ID != exceptID {
			return true
		}
	}
	return false
}

func duplicateCode(code string) *RejectedError {
	return &RejectedError{Field: "code", Reason: fmt.Sprintf("Employee code %s is already in use.", code)}
}

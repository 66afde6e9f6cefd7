package employee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/grade"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/validator"
)

type EmployeeServiceImpl struct {
	db           database.Transactor
	employeeRepo employee.EmployeeRepository
	payrollRepo  payroll.PayrollRepository
	distribution grade.Distribution
}

func NewEmployeeService(
	db database.Transactor,
	employeeRepo employee.EmployeeRepository,
	payrollRepo payroll.PayrollRepository,
	distribution grade.Distribution,
) employee.EmployeeService {
	return &EmployeeServiceImpl{
		db:           db,
		employeeRepo: employeeRepo,
		payrollRepo:  payrollRepo,
		distribution: distribution,
	}
}

// ListEmployees implements employee.EmployeeService.
func (s *EmployeeServiceImpl) ListEmployees(ctx context.Context, filter employee.EmployeeFilter) (employee.ListEmployeeResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return employee.ListEmployeeResponse{}, err
	}

	filter.Normalize()
	if _, _, err := filter.ParseSort(); err != nil {
		return employee.ListEmployeeResponse{}, err
	}

	employees, total, err := s.employeeRepo.List(ctx, claims.CompanyID, filter)
	if err != nil {
		return employee.ListEmployeeResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}

	data := make([]employee.EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		data = append(data, employee.ToResponse(e))
	}

	return employee.ListEmployeeResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Size:       filter.Size,
	}, nil
}

// GetEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) GetEmployee(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	e, err := s.employeeRepo.GetByID(ctx, id, claims.CompanyID)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return employee.ToResponse(e), nil
}

// CreateEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) CreateEmployee(ctx context.Context, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	var created employee.Employee
	err = s.db.WithinTx(ctx, func(ctx context.Context) error {
		roster, err := s.employeeRepo.ListAll(ctx, claims.CompanyID)
		if err != nil {
			return fmt.Errorf("failed to load roster: %w", err)
		}

		if ok, reason := s.distribution.CanAssign(employee.Ranks(roster), req.Grade, false, nil); !ok {
			return &employee.GradeLimitError{Reason: reason}
		}
		if codeTaken(roster, req.Code, "") {
			return employee.ErrEmployeeCodeExists
		}

		created, err = s.employeeRepo.Create(ctx, employee.Employee{
			CompanyID: claims.CompanyID,
			Code:      req.Code,
			Name:      req.Name,
			Email:     req.Email,
			Mobile:    validator.NormalizePhoneNumber(req.Mobile),
			Address:   req.Address,
			Grade:     req.Grade,
			Account: employee.BankAccount{
				Type:    employee.AccountType(req.Account.Type),
				Number:  req.Account.Number,
				Balance: req.Account.Balance,
				Branch:  req.Account.Branch,
			},
		})
		return err
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	slog.Info("employee created", "employee_id", created.ID, "company_id", claims.CompanyID, "grade", created.Grade)
	return employee.ToResponse(created), nil
}

// UpdateEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) UpdateEmployee(ctx context.Context, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	var updated employee.Employee
	err = s.db.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.employeeRepo.GetByID(ctx, req.ID, claims.CompanyID)
		if err != nil {
			return err
		}

		roster, err := s.employeeRepo.ListAll(ctx, claims.CompanyID)
		if err != nil {
			return fmt.Errorf("failed to load roster: %w", err)
		}

		updated = req.Apply(existing)
		updated.Mobile = validator.NormalizePhoneNumber(updated.Mobile)

		if updated.Grade != existing.Grade {
			previous := existing.Grade
			if ok, reason := s.distribution.CanAssign(employee.Ranks(roster), updated.Grade, true, &previous); !ok {
				return &employee.GradeLimitError{Reason: reason}
			}
		}
		if updated.Code != existing.Code && codeTaken(roster, updated.Code, existing.ID) {
			return employee.ErrEmployeeCodeExists
		}

		return s.employeeRepo.Update(ctx, updated)
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	return employee.ToResponse(updated), nil
}

// DeleteEmployee implements employee.EmployeeService.
// Removal is refused while a batch for the company is mid-transfer.
func (s *EmployeeServiceImpl) DeleteEmployee(ctx context.Context, id string) error {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	return s.db.WithinTx(ctx, func(ctx context.Context) error {
		active, err := s.payrollRepo.GetActiveBatch(ctx, claims.CompanyID)
		switch {
		case err == nil && active.Status == payroll.BatchStatusProcessing:
			return employee.ErrActivePayrollInFlight
		case err != nil && !errors.Is(err, payroll.ErrNoActiveBatch):
			return fmt.Errorf("failed to check active payroll: %w", err)
		}

		if err := s.employeeRepo.Delete(ctx, id, claims.CompanyID); err != nil {
			return err
		}
		slog.Info("employee deleted", "employee_id", id, "company_id", claims.CompanyID)
		return nil
	})
}

func codeTaken(roster []employee.Employee, code string, exceptID string) bool {
	for _, e := range roster {
		if e.Code == code && e.ID != exceptID {
			return true
		}
	}
	return false
}

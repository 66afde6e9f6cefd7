package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `id, company_id, employee_code, full_name, email, mobile, address, grade,
	account_type, account_number, account_balance, account_branch, created_at, updated_at`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(
		&e.ID, &e.CompanyID, &e.Code, &e.Name, &e.Email, &e.Mobile, &e.Address, &e.Grade,
		&e.Account.Type, &e.Account.Number, &e.Account.Balance, &e.Account.Branch,
		&e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

func mapEmployeeWriteError(err error) error {
	if constraint, ok := uniqueConstraint(err); ok {
		switch constraint {
		case "employees_company_code_key":
			return employee.ErrEmployeeCodeExists
		case "employees_account_number_key":
			return employee.ErrAccountNumberExists
		}
	}
	return err
}

// Create implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO employees (
			company_id, employee_code, full_name, email, mobile, address, grade,
			account_type, account_number, account_balance, account_branch
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + employeeColumns

	created, err := scanEmployee(q.QueryRow(ctx, query,
		newEmployee.CompanyID, newEmployee.Code, newEmployee.Name, newEmployee.Email,
		newEmployee.Mobile, newEmployee.Address, newEmployee.Grade,
		newEmployee.Account.Type, newEmployee.Account.Number, newEmployee.Account.Balance, newEmployee.Account.Branch,
	))
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to create employee: %w", mapEmployeeWriteError(err))
	}
	return created, nil
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1 AND company_id = $2`

	found, err := scanEmployee(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by id: %w", err)
	}
	return found, nil
}

// GetByCode implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) GetByCode(ctx context.Context, companyID string, code string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE company_id = $1 AND employee_code = $2`

	found, err := scanEmployee(q.QueryRow(ctx, query, companyID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by code: %w", err)
	}
	return found, nil
}

var employeeSortColumns = map[employee.SortKey]string{
	employee.SortByCode:    "employee_code",
	employee.SortByName:    "full_name",
	employee.SortByGrade:   "grade",
	employee.SortByBalance: "account_balance",
}

// List implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) List(ctx context.Context, companyID string, filter employee.EmployeeFilter) ([]employee.Employee, int64, error) {
	q := GetQuerier(ctx, r.db)

	filter.Normalize()
	key, desc, err := filter.ParseSort()
	if err != nil {
		return nil, 0, err
	}

	var totalCount int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM employees WHERE company_id = $1`, companyID).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count employees: %w", err)
	}

	sortOrder := "ASC"
	if desc {
		sortOrder = "DESC"
	}

	// ties fall back to grade then code
	query := fmt.Sprintf(`
		SELECT %s
		FROM employees
		WHERE company_id = $1
		ORDER BY %s %s, grade ASC, employee_code ASC
		LIMIT $2 OFFSET $3
	`, employeeColumns, employeeSortColumns[key], sortOrder)

	offset := (filter.Page - 1) * filter.Size
	rows, err := q.Query(ctx, query, companyID, filter.Size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	employees, err := collectEmployees(rows)
	if err != nil {
		return nil, 0, err
	}
	return employees, totalCount, nil
}

// ListAll implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) ListAll(ctx context.Context, companyID string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE company_id = $1 ORDER BY grade ASC, employee_code ASC`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	return collectEmployees(rows)
}

func collectEmployees(rows pgx.Rows) ([]employee.Employee, error) {
	employees := []employee.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}

// Update implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) Update(ctx context.Context, e employee.Employee) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employees
		SET employee_code = $1, full_name = $2, email = $3, mobile = $4, address = $5, grade = $6,
			account_type = $7, account_number = $8, account_balance = $9, account_branch = $10,
			updated_at = NOW()
		WHERE id = $11 AND company_id = $12
	`

	tag, err := q.Exec(ctx, query,
		e.Code, e.Name, e.Email, e.Mobile, e.Address, e.Grade,
		e.Account.Type, e.Account.Number, e.Account.Balance, e.Account.Branch,
		e.ID, e.CompanyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", mapEmployeeWriteError(err))
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// Delete implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) Delete(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM employees WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// CreditAccount implements employee.EmployeeRepository.
func (r *employeeRepositoryImpl) CreditAccount(ctx context.Context, id string, companyID string, amount decimal.Decimal) (decimal.Decimal, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employees
		SET account_balance = account_balance + $1, updated_at = NOW()
		WHERE id = $2 AND company_id = $3
		RETURNING account_balance
	`

	var balance decimal.Decimal
	err := q.QueryRow(ctx, query, amount, id, companyID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, employee.ErrEmployeeNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to credit employee account: %w", err)
	}
	return balance, nil
}

package employee

import (
	"context"

	"github.com/shopspring/decimal"
)

// EmployeeRepository scopes every lookup by companyID.
type EmployeeRepository interface {
	Create(ctx context.Context, newEmployee Employee) (Employee, error)
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)
	GetByCode(ctx context.Context, companyID string, code string) (Employee, error)
	List(ctx context.Context, companyID string, filter EmployeeFilter) ([]Employee, int64, error)
	ListAll(ctx context.Context, companyID string) ([]Employee, error)
	Update(ctx context.Context, e Employee) error
	Delete(ctx context.Context, id string, companyID string) error
	CreditAccount(ctx context.Context, id string, companyID string, amount decimal.Decimal) (decimal.Decimal, error)
}

package payroll

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/grade"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/salary"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/user"
	"github.com/cmlabs-hris/payroll-disbursement/internal/fixtures"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-disbursement/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt"

type testEnv struct {
	store   *memory.Store
	seeded  *fixtures.SeededDataIDs
	ctx     context.Context
	service payroll.PayrollService
	repos   fixtures.Repositories
	payroll payroll.PayrollRepository
}

func newTestEnv(t *testing.T, balance string, opts Options) *testEnv {
	t.Helper()

	store := memory.NewStore()
	repos := fixtures.Repositories{
		Users:     memory.NewUserRepository(store),
		Companies: memory.NewCompanyRepository(store),
		Employees: memory.NewEmployeeRepository(store),
	}
	seeded, err := fixtures.Bootstrap(context.Background(), store, repos, fixtures.BootstrapInput{
		CompanyName:    "Acme",
		AccountNumber:  "1000200030",
		OpeningBalance: decimal.RequireFromString(balance),
		AdminUsername:  "admin",
		AdminPassword:  "secret123",
		SeedRoster:     true,
	})
	require.NoError(t, err)

	jwtService := jwt.NewJWTService(testSecret, "1h", "24h")
	token, _, err := jwtService.GenerateAccessToken(seeded.AdminID, seeded.CompanyID, user.RoleAdmin)
	require.NoError(t, err)
	ctx, err := jwt.NewContext(context.Background(), jwtService.JWTAuth(), token)
	require.NoError(t, err)

	payrollRepo := memory.NewPayrollRepository(store)
	svc := NewPayrollService(store, payrollRepo, repos.Employees, repos.Companies,
		salary.DefaultPolicy(), grade.DefaultDistribution(), opts)

	return &testEnv{
		store:   store,
		seeded:  seeded,
		ctx:     ctx,
		service: svc,
		repos:   repos,
		payroll: payrollRepo,
	}
}

func (e *testEnv) createBatch(t *testing.T) payroll.BatchResponse {
	t.Helper()
	b, err := e.service.CreateBatch(e.ctx, payroll.CreateBatchRequest{
		FundingAccountID: e.seeded.AccountNumber,
		BaseSalary:       decimal.NewFromInt(25000),
	})
	require.NoError(t, err)
	return b
}

func (e *testEnv) allEmployeeIDs() []string {
	ids := make([]string, 0, len(e.seeded.EmployeeIDs))
	for _, id := range e.seeded.EmployeeIDs {
		ids = append(ids, id)
	}
	return ids
}

func (e *testEnv) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	c, err := e.repos.Companies.GetByID(context.Background(), e.seeded.CompanyID)
	require.NoError(t, err)
	return c.Balance
}

func (e *testEnv) topUp(t *testing.T, amount string) {
	t.Helper()
	require.NoError(t, e.store.WithinTx(context.Background(), func(ctx context.Context) error {
		c, err := e.repos.Companies.GetForUpdate(ctx, e.seeded.CompanyID)
		if err != nil {
			return err
		}
		return e.repos.Companies.UpdateBalance(ctx, c.ID, c.Balance.Add(decimal.RequireFromString(amount)))
	}))
}

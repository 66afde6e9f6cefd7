package company

import (
	"context"
	"errors"
	"testing"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/company"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/user"
	"github.com/cmlabs-hris/payroll-disbursement/internal/fixtures"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/validator"
	"github.com/cmlabs-hris/payroll-disbursement/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (context.Context, *fixtures.SeededDataIDs, company.CompanyService) {
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
		BankName:       "City Bank",
		OpeningBalance: decimal.NewFromInt(500),
		AdminUsername:  "admin",
		AdminPassword:  "secret123",
	})
	require.NoError(t, err)

	jwtService := jwt.NewJWTService("test-secret", "1h", "24h")
	token, _, err := jwtService.GenerateAccessToken(seeded.AdminID, seeded.CompanyID, user.RoleAdmin)
	require.NoError(t, err)
	ctx, err := jwt.NewContext(context.Background(), jwtService.JWTAuth(), token)
	require.NoError(t, err)

	return ctx, seeded, NewCompanyService(store, repos.Companies, decimal.NewFromInt(1000000))
}

func TestGetAccount(t *testing.T) {
	ctx, seeded, svc := newTestService(t)

	acc, err := svc.GetAccount(ctx, seeded.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, "1000200030", acc.AccountNumber)
	assert.Equal(t, "City Bank", acc.BankName)
	assert.Equal(t, "500", acc.CurrentBalance.String())

	_, err = svc.GetAccount(ctx, "")
	assert.NoError(t, err)

	_, err = svc.GetAccount(ctx, "another-company")
	assert.ErrorIs(t, err, company.ErrCompanyMismatch)
}

func TestTopUp(t *testing.T) {
	ctx, _, svc := newTestService(t)

	acc, err := svc.TopUp(ctx, company.TopUpRequest{Amount: decimal.RequireFromString("250.75")})
	require.NoError(t, err)
	assert.Equal(t, "750.75", acc.CurrentBalance.String())

	list, err := svc.ListTransactions(ctx, company.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.TotalCount)
	assert.Equal(t, string(company.TransactionTopUp), list.Data[0].Type)
	assert.Equal(t, "Company account top-up", list.Data[0].Description)
	assert.Equal(t, "750.75", list.Data[0].BalanceAfter.String())
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 20, list.Size)
}

func TestTopUp_Rejects(t *testing.T) {
	ctx, _, svc := newTestService(t)

	_, err := svc.TopUp(ctx, company.TopUpRequest{Amount: decimal.Zero})
	var verrs validator.ValidationErrors
	assert.True(t, errors.As(err, &verrs))

	_, err = svc.TopUp(ctx, company.TopUpRequest{Amount: decimal.NewFromInt(-5)})
	assert.True(t, errors.As(err, &verrs))

	_, err = svc.TopUp(ctx, company.TopUpRequest{Amount: decimal.RequireFromString("0.004")})
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "must have at most 2 decimal places", verrs[0].Message)

	_, err = svc.TopUp(ctx, company.TopUpRequest{Amount: decimal.NewFromInt(1000001)})
	assert.ErrorIs(t, err, company.ErrTopUpAboveMaximum)

	acc, err := svc.GetAccount(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "500", acc.CurrentBalance.String())
}

func TestTopUp_RepeatedRequestIDCreditsOnce(t *testing.T) {
	ctx, _, svc := newTestService(t)
	req := company.TopUpRequest{Amount: decimal.NewFromInt(100), RequestID: "0d7c9a35-5c1f-4f43-9c1e-8a1f0e7b2b11"}

	acc, err := svc.TopUp(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "600", acc.CurrentBalance.String())

	acc, err = svc.TopUp(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "600", acc.CurrentBalance.String())

	req.RequestID = "6a4d2f0e-8b7c-4c1a-9f3e-2d5b6c7a8e90"
	acc, err = svc.TopUp(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "700", acc.CurrentBalance.String())

	list, err := svc.ListTransactions(ctx, company.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.TotalCount) // opening balance + two distinct top-ups
}

package main

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-disbursement/internal/client/orchestrator"
	"github.com/cmlabs-hris/payroll-disbursement/internal/config"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/grade"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/salary"
	"github.com/cmlabs-hris/payroll-disbursement/internal/fixtures"
	appHTTP "github.com/cmlabs-hris/payroll-disbursement/internal/handler/http"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-disbursement/internal/repository/memory"
	authService "github.com/cmlabs-hris/payroll-disbursement/internal/service/auth"
	companyService "github.com/cmlabs-hris/payroll-disbursement/internal/service/company"
	employeeService "github.com/cmlabs-hris/payroll-disbursement/internal/service/employee"
	payrollService "github.com/cmlabs-hris/payroll-disbursement/internal/service/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T, openingBalance string) string {
	t.Helper()

	db := memory.NewStore()
	userRepo := memory.NewUserRepository(db)
	companyRepo := memory.NewCompanyRepository(db)
	employeeRepo := memory.NewEmployeeRepository(db)
	payrollRepo := memory.NewPayrollRepository(db)

	_, err := fixtures.Bootstrap(context.Background(), db, fixtures.Repositories{
		Users:     userRepo,
		Companies: companyRepo,
		Employees: employeeRepo,
	}, fixtures.BootstrapInput{
		CompanyName:    "Acme",
		AccountNumber:  "1000200030",
		BankName:       "Test Bank",
		Branch:         "Main",
		OpeningBalance: decimal.RequireFromString(openingBalance),
		AdminUsername:  "admin",
		AdminPassword:  "password123",
		SeedRoster:     true,
	})
	require.NoError(t, err)

	jwtService := jwt.NewJWTService("cli-test-secret", "1h", "24h")
	distribution := grade.DefaultDistribution()
	router, err := appHTTP.NewRouter(jwtService, appHTTP.Handlers{
		Auth:     appHTTP.NewAuthHandler(authService.NewAuthService(userRepo, companyRepo, jwtService)),
		Employee: appHTTP.NewEmployeeHandler(employeeService.NewEmployeeService(db, employeeRepo, payrollRepo, distribution)),
		Company:  appHTTP.NewCompanyHandler(companyService.NewCompanyService(db, companyRepo, decimal.NewFromInt(1_000_000))),
		Payroll: appHTTP.NewPayrollHandler(payrollService.NewPayrollService(db, payrollRepo, employeeRepo, companyRepo,
			salary.DefaultPolicy(), distribution, payrollService.Options{})),
	}, appHTTP.RouterOptions{
		Env:            "test",
		LogLevel:       slog.LevelError,
		AllowedOrigins: []string{"*"},
		MoneyRateLimit: "1000-M",
	})
	require.NoError(t, err)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server.URL + "/api/v1"
}

func testConfig(baseURL string) *config.ClientConfig {
	return &config.ClientConfig{
		BaseURL:        baseURL,
		Timeout:        5 * time.Second,
		RetryAttempts:  1,
		RetryBaseDelay: time.Millisecond,
		TopUpMax:       decimal.NewFromInt(1_000_000),
		Username:       "admin",
		Password:       "password123",
		Policy:         config.DefaultPolicy(),
	}
}

func execute(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	out := a.out.(*bytes.Buffer)
	out.Reset()
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunCommand_TopsUpShortfallAndCompletes(t *testing.T) {
	baseURL := newTestBackend(t, "479249")
	a := newApp(testConfig(baseURL), strings.NewReader(""), &bytes.Buffer{})
	defer a.close()

	out, err := execute(t, a, "run", "--base", "25000", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "total payroll 479250.00 for base 25000.00")
	assert.Contains(t, out, "Topping up shortfall 1.00")
	assert.Contains(t, out, "attempt 2: 1 submitted, 0 failed")
	assert.Contains(t, out, "COMPLETED: paid 479250.00 of 479250.00, outstanding 0.00")

	out, err = execute(t, a, "account")
	require.NoError(t, err)
	assert.Contains(t, out, "balance 0.00")

	out, err = execute(t, a, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "No active payroll batch")
}

func TestTransferCommand_ReportsShortfall(t *testing.T) {
	baseURL := newTestBackend(t, "479000")
	a := newApp(testConfig(baseURL), strings.NewReader(""), &bytes.Buffer{})
	defer a.close()

	_, err := execute(t, a, "transfer")
	assert.ErrorIs(t, err, errNoActiveBatch)

	_, err = execute(t, a, "calculate", "--base", "25000")
	require.NoError(t, err)

	out, err := execute(t, a, "transfer")
	require.NoError(t, err)
	assert.Contains(t, out, "Shortfall 250.00")
	assert.Contains(t, out, "topup --amount 250.00")

	out, err = execute(t, a, "topup", "--amount", "250")
	require.NoError(t, err)
	assert.Contains(t, out, "balance 33750.00")

	out, err = execute(t, a, "transfer")
	require.NoError(t, err)
	assert.Contains(t, out, "COMPLETED")
}

func TestEmployeesCommand(t *testing.T) {
	baseURL := newTestBackend(t, "0")
	a := newApp(testConfig(baseURL), strings.NewReader(""), &bytes.Buffer{})
	defer a.close()

	out, err := execute(t, a, "employees", "--grade", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "page 1/1, 2 employees")
	assert.NotContains(t, out, "open slots")

	_, err = execute(t, a, "employees", "--sort", "salary")
	require.Error(t, err)
}

func TestTopUpCommand_GuardRunsBeforeRequest(t *testing.T) {
	a := newApp(testConfig("http://127.0.0.1:1/api/v1"), strings.NewReader(""), &bytes.Buffer{})
	defer a.close()

	_, err := execute(t, a, "topup", "--amount", "2000000")
	require.Error(t, err)
	assert.Equal(t, "Top-up amount is above the allowed maximum of 1000000.00.", orchestrator.UserMessage(err))

	_, err = execute(t, a, "topup", "--amount", "abc")
	require.Error(t, err)
}

func TestStdinPrompter(t *testing.T) {
	prompt := orchestrator.TopUpPrompt{
		Shortfall: decimal.NewFromInt(250),
		Required:  decimal.NewFromInt(33750),
		Available: decimal.NewFromInt(33500),
	}
	ask := func(input string) (decimal.Decimal, bool, string) {
		var out bytes.Buffer
		p := newStdinPrompter(bufio.NewReader(strings.NewReader(input)), &out)
		amount, ok, err := p.PromptTopUp(context.Background(), prompt)
		require.NoError(t, err)
		return amount, ok, out.String()
	}

	amount, ok, _ := ask("\n")
	assert.True(t, ok)
	assert.True(t, amount.Equal(decimal.NewFromInt(250)))

	amount, ok, out := ask("lots\n1,000\n")
	assert.True(t, ok)
	assert.True(t, amount.Equal(decimal.NewFromInt(1000)))
	assert.Contains(t, out, `"lots" is not a valid amount`)

	_, ok, _ = ask("n\n")
	assert.False(t, ok)

	_, ok, _ = ask("")
	assert.False(t, ok)
}

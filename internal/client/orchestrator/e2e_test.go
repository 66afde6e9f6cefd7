package orchestrator

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cmlabs-hris/payroll-disbursement/internal/client/api"
	"github.com/cmlabs-hris/payroll-disbursement/internal/client/directory"
	"github.com/cmlabs-hris/payroll-disbursement/internal/client/ledger"
	"github.com/cmlabs-hris/payroll-disbursement/internal/client/session"
	"github.com/cmlabs-hris/payroll-disbursement/internal/client/store"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/company"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/grade"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/payroll"
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

const (
	e2eAdmin    = "admin"
	e2ePassword = "password123"
)

var (
	e2eBase  = decimal.NewFromInt(25000)
	e2eTotal = decimal.NewFromInt(479250)
)

type e2eEnv struct {
	sessions *session.MemoryStore
	state    *store.Store
	client   *api.Client
	dir      *directory.Directory
	ledger   *ledger.Ledger
	orch     *Orchestrator
	session  session.Session
}

// newE2EEnv starts the payroll service on the memory store with the default
// roster and signs an admin in.
func newE2EEnv(t *testing.T, openingBalance decimal.Decimal, mode payrollService.TransferMode) *e2eEnv {
	t.Helper()
	ctx := context.Background()

	db := memory.NewStore()
	userRepo := memory.NewUserRepository(db)
	companyRepo := memory.NewCompanyRepository(db)
	employeeRepo := memory.NewEmployeeRepository(db)
	payrollRepo := memory.NewPayrollRepository(db)

	_, err := fixtures.Bootstrap(ctx, db, fixtures.Repositories{
		Users:     userRepo,
		Companies: companyRepo,
		Employees: employeeRepo,
	}, fixtures.BootstrapInput{
		CompanyName:    "Acme",
		AccountNumber:  "1000200030",
		BankName:       "Test Bank",
		Branch:         "Main",
		OpeningBalance: openingBalance,
		AdminUsername:  e2eAdmin,
		AdminPassword:  e2ePassword,
		SeedRoster:     true,
	})
	require.NoError(t, err)

	jwtService := jwt.NewJWTService("e2e-secret-key-for-jwt", "1h", "24h")
	distribution := grade.DefaultDistribution()
	router, err := appHTTP.NewRouter(jwtService, appHTTP.Handlers{
		Auth:     appHTTP.NewAuthHandler(authService.NewAuthService(userRepo, companyRepo, jwtService)),
		Employee: appHTTP.NewEmployeeHandler(employeeService.NewEmployeeService(db, employeeRepo, payrollRepo, distribution)),
		Company:  appHTTP.NewCompanyHandler(companyService.NewCompanyService(db, companyRepo, decimal.NewFromInt(1_000_000))),
		Payroll: appHTTP.NewPayrollHandler(payrollService.NewPayrollService(db, payrollRepo, employeeRepo, companyRepo,
			salary.DefaultPolicy(), distribution, payrollService.Options{Mode: mode})),
	}, appHTTP.RouterOptions{
		Env:            "test",
		LogLevel:       slog.LevelError,
		AllowedOrigins: []string{"*"},
		MoneyRateLimit: "1000-M",
	})
	require.NoError(t, err)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	sessions := session.NewMemoryStore()
	client, err := api.New(server.URL+"/api/v1", sessions, api.Options{RetryAttempts: 1})
	require.NoError(t, err)

	sess, err := client.Login(ctx, e2eAdmin, e2ePassword)
	require.NoError(t, err)

	state := store.New()
	dir := directory.New(client, state, distribution)
	_, err = dir.Reload(ctx)
	require.NoError(t, err)

	l := ledger.New(client, state)
	return &e2eEnv{
		sessions: sessions,
		state:    state,
		client:   client,
		dir:      dir,
		ledger:   l,
		orch:     New(client, l, state, sessions, DefaultConfig()),
		session:  sess,
	}
}

func (e *e2eEnv) createBatch(t *testing.T) payroll.BatchResponse {
	t.Helper()
	batch, err := e.orch.CreateBatch(context.Background(), e.session.CompanyID, e.session.AccountNumber, e2eBase)
	require.NoError(t, err)
	return batch
}

func (e *e2eEnv) balance(t *testing.T) decimal.Decimal {
	t.Helper()
	account, err := e.ledger.Account(context.Background(), e.session.CompanyID)
	require.NoError(t, err)
	return account.CurrentBalance
}

func TestE2E_FullBalanceCompletes(t *testing.T) {
	env := newE2EEnv(t, e2eTotal, payrollService.TransferPartial)
	ctx := context.Background()

	batch := env.createBatch(t)
	assert.Equal(t, string(payroll.BatchStatusPending), batch.Status)
	assert.True(t, batch.TotalAmount.Equal(e2eTotal), "total %s", batch.TotalAmount)
	assert.Equal(t, 10, batch.ItemCount)

	attempt, err := env.orch.Transfer(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 10, attempt.Submitted)
	assert.Zero(t, attempt.Failed)
	assert.False(t, attempt.NeedsTopUp())
	assert.Equal(t, string(payroll.BatchStatusCompleted), attempt.Batch.Status)

	assert.True(t, env.orch.TotalPaid().Equal(e2eTotal))
	summary := env.orch.Summary()
	assert.Equal(t, StateCompleted, summary.State)
	assert.True(t, summary.Reconciled)
	assert.True(t, summary.Outstanding.IsZero())

	assert.True(t, env.balance(t).IsZero())

	pending, err := env.orch.PendingBatch(ctx, env.session.CompanyID)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestE2E_ShortByOneRecoversAfterTopUp(t *testing.T) {
	env := newE2EEnv(t, e2eTotal.Sub(decimal.NewFromInt(1)), payrollService.TransferPartial)
	ctx := context.Background()
	batch := env.createBatch(t)

	var prompts []TopUpPrompt
	prompter := PrompterFunc(func(ctx context.Context, p TopUpPrompt) (decimal.Decimal, bool, error) {
		prompts = append(prompts, p)
		return p.Shortfall, true, nil
	})

	out, err := env.orch.Run(ctx, env.session.CompanyID, batch, prompter)
	require.NoError(t, err)
	require.True(t, out.Done())
	require.Len(t, out.Attempts, 2)

	first := out.Attempts[0]
	assert.Equal(t, 1, first.Failed)
	assert.Equal(t, 1, first.Unfunded)
	require.True(t, first.HasShortfall)
	assert.True(t, first.Shortfall.Amount().Equal(decimal.NewFromInt(1)), "shortfall %s", first.Shortfall.Amount())
	assert.Equal(t, string(payroll.BatchStatusPartiallyCompleted), first.Batch.Status)

	require.Len(t, prompts, 1)
	assert.True(t, prompts[0].Shortfall.Equal(decimal.NewFromInt(1)))
	assert.True(t, prompts[0].Guard.Min.Equal(decimal.NewFromInt(1)))
	require.Len(t, out.TopUps, 1)

	second := out.Attempts[1]
	assert.Equal(t, 1, second.Submitted)
	assert.Zero(t, second.Failed)
	assert.Equal(t, string(payroll.BatchStatusCompleted), out.Batch.Status)

	assert.True(t, env.orch.TotalPaid().Equal(e2eTotal))
	assert.True(t, env.orch.Summary().Reconciled)
	assert.True(t, env.balance(t).IsZero())
}

func TestE2E_TopUpOfExactShortfallConverges(t *testing.T) {
	opening := decimal.NewFromInt(300000)
	env := newE2EEnv(t, opening, payrollService.TransferPartial)
	ctx := context.Background()
	batch := env.createBatch(t)

	first, err := env.orch.Transfer(ctx, batch)
	require.NoError(t, err)
	require.True(t, first.NeedsTopUp())
	assert.True(t, first.Shortfall.Amount().Equal(e2eTotal.Sub(opening)), "shortfall %s", first.Shortfall.Amount())

	_, err = env.ledger.TopUp(ctx, env.session.CompanyID, company.TopUpRequest{Amount: first.Shortfall.Amount()})
	require.NoError(t, err)

	second, err := env.orch.Transfer(ctx, first.Batch)
	require.NoError(t, err)
	assert.Zero(t, second.Failed)
	assert.Equal(t, first.Failed, second.Submitted)
	assert.Equal(t, string(payroll.BatchStatusCompleted), second.Batch.Status)
}

func TestE2E_AtomicRejectionParsesMessage(t *testing.T) {
	opening := decimal.NewFromInt(100000)
	env := newE2EEnv(t, opening, payrollService.TransferAtomic)
	ctx := context.Background()
	batch := env.createBatch(t)

	attempt, err := env.orch.Transfer(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 10, attempt.Failed)
	assert.Empty(t, attempt.Results)
	require.True(t, attempt.NeedsTopUp())
	assert.True(t, attempt.Shortfall.Required.Equal(e2eTotal))
	assert.True(t, attempt.Shortfall.Available.Equal(opening))
	assert.True(t, attempt.Shortfall.Amount().Equal(decimal.NewFromInt(379250)))

	// nothing moved
	assert.True(t, env.balance(t).Equal(opening))
	assert.True(t, env.orch.TotalPaid().IsZero())
}

func TestE2E_DeclinedTopUpLeavesBatchResumable(t *testing.T) {
	env := newE2EEnv(t, decimal.NewFromInt(400000), payrollService.TransferPartial)
	ctx := context.Background()
	batch := env.createBatch(t)

	out, err := env.orch.Run(ctx, env.session.CompanyID, batch, PrompterFunc(
		func(ctx context.Context, p TopUpPrompt) (decimal.Decimal, bool, error) {
			return decimal.Zero, false, nil
		}))
	require.NoError(t, err)
	assert.True(t, out.Declined)
	assert.False(t, out.Done())
	assert.Equal(t, string(payroll.BatchStatusPartiallyCompleted), out.Batch.Status)

	pending, err := env.orch.PendingBatch(ctx, env.session.CompanyID)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, batch.ID, pending.ID)
	assert.Equal(t, StatePartiallyCompleted, StateOf(pending))
}

func TestE2E_ConcurrentCreateYieldsOneBatch(t *testing.T) {
	env := newE2EEnv(t, e2eTotal, payrollService.TransferPartial)
	ctx := context.Background()

	const callers = 5
	ids := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := env.orch.CreateBatch(ctx, env.session.CompanyID, env.session.AccountNumber, e2eBase)
			ids[i], errs[i] = b.ID, err
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	// a second orchestrator adopts the same batch
	otherState := store.New()
	_, err := directory.New(env.client, otherState, grade.DefaultDistribution()).Reload(ctx)
	require.NoError(t, err)
	other := New(env.client, ledger.New(env.client, otherState), otherState, env.sessions, DefaultConfig())
	adopted, err := other.CreateBatch(ctx, env.session.CompanyID, env.session.AccountNumber, e2eBase)
	require.NoError(t, err)
	assert.Equal(t, ids[0], adopted.ID)

	pending, err := env.orch.PendingBatch(ctx, env.session.CompanyID)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, ids[0], pending.ID)
	assert.Equal(t, string(payroll.BatchStatusPending), pending.Status)
}

func TestE2E_PendingBatchReplacesAdvisoryID(t *testing.T) {
	env := newE2EEnv(t, e2eTotal, payrollService.TransferPartial)
	ctx := context.Background()

	sess, err := env.sessions.Get(ctx)
	require.NoError(t, err)
	sess.BatchID, sess.BatchStatus = "stale-batch", "PENDING"
	require.NoError(t, env.sessions.Save(ctx, sess))

	pending, err := env.orch.PendingBatch(ctx, env.session.CompanyID)
	require.NoError(t, err)
	assert.Nil(t, pending)
	sess, err = env.sessions.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, sess.BatchID)

	batch := env.createBatch(t)
	sess, err = env.sessions.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, batch.ID, sess.BatchID)
	assert.Equal(t, batch.Status, sess.BatchStatus)

	active, ok := env.state.ActiveBatch(env.session.CompanyID)
	require.True(t, ok)
	assert.Equal(t, batch.ID, active.ID)
}

func TestE2E_SyncReadsEverything(t *testing.T) {
	env := newE2EEnv(t, e2eTotal, payrollService.TransferPartial)
	ctx := context.Background()

	snap, err := env.orch.Sync(ctx, env.session.CompanyID, env.dir)
	require.NoError(t, err)
	assert.Len(t, snap.Roster, 10)
	assert.True(t, snap.Account.CurrentBalance.Equal(e2eTotal))
	assert.Nil(t, snap.Batch)
	assert.Equal(t, StateNoBatch, snap.State)

	batch := env.createBatch(t)
	snap, err = env.orch.Sync(ctx, env.session.CompanyID, env.dir)
	require.NoError(t, err)
	require.NotNil(t, snap.Batch)
	assert.Equal(t, batch.ID, snap.Batch.ID)
	assert.Equal(t, StatePending, snap.State)
}

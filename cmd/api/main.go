package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/payroll-disbursement/internal/config"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/company"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/user"
	"github.com/cmlabs-hris/payroll-disbursement/internal/fixtures"
	appHTTP "github.com/cmlabs-hris/payroll-disbursement/internal/handler/http"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/cron"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-disbursement/internal/repository/memory"
	"github.com/cmlabs-hris/payroll-disbursement/internal/repository/postgresql"
	serviceAuth "github.com/cmlabs-hris/payroll-disbursement/internal/service/auth"
	serviceCompany "github.com/cmlabs-hris/payroll-disbursement/internal/service/company"
	employeeService "github.com/cmlabs-hris/payroll-disbursement/internal/service/employee"
	payrollService "github.com/cmlabs-hris/payroll-disbursement/internal/service/payroll"
)

type storage struct {
	db           database.Transactor
	userRepo     user.UserRepository
	companyRepo  company.CompanyRepository
	employeeRepo employee.EmployeeRepository
	payrollRepo  payroll.PayrollRepository
	close        func()
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	if cfg.Database.Driver == "memory" {
		slog.Warn("Using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &storage{
			db:           store,
			userRepo:     memory.NewUserRepository(store),
			companyRepo:  memory.NewCompanyRepository(store),
			employeeRepo: memory.NewEmployeeRepository(store),
			payrollRepo:  memory.NewPayrollRepository(store),
			close:        func() {},
		}, nil
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := postgresql.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &storage{
		db:           db,
		userRepo:     postgresql.NewUserRepository(db),
		companyRepo:  postgresql.NewCompanyRepository(db),
		employeeRepo: postgresql.NewEmployeeRepository(db),
		payrollRepo:  postgresql.NewPayrollRepository(db),
		close:        db.Close,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		slog.Error("Storage initialization failed", "error", err)
		os.Exit(1)
	}
	defer store.close()

	if cfg.Bootstrap.Enabled() {
		b := cfg.Bootstrap
		_, err := fixtures.Bootstrap(ctx, store.db, fixtures.Repositories{
			Users:     store.userRepo,
			Companies: store.companyRepo,
			Employees: store.employeeRepo,
		}, fixtures.BootstrapInput{
			CompanyName:    b.CompanyName,
			AccountNumber:  b.AccountNumber,
			BankName:       b.BankName,
			Branch:         b.Branch,
			OpeningBalance: b.OpeningBalance,
			AdminUsername:  b.AdminUsername,
			AdminPassword:  b.AdminPassword,
			ViewerUsername: b.ViewerUsername,
			ViewerPassword: b.ViewerPassword,
			SeedRoster:     b.SeedRoster,
		})
		switch {
		case errors.Is(err, fixtures.ErrAlreadyBootstrapped):
			slog.Info("Bootstrap skipped, users already exist")
		case err != nil:
			slog.Error("Bootstrap failed", "error", err)
			os.Exit(1)
		}
	}

	policy := cfg.Payroll.Policy
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.RefreshExpiration)

	authService := serviceAuth.NewAuthService(store.userRepo, store.companyRepo, JWTService)
	companyService := serviceCompany.NewCompanyService(store.db, store.companyRepo, cfg.Payroll.TopUpMax)
	employeeSvc := employeeService.NewEmployeeService(store.db, store.employeeRepo, store.payrollRepo, policy.Distribution)
	payrollSvc := payrollService.NewPayrollService(
		store.db,
		store.payrollRepo,
		store.employeeRepo,
		store.companyRepo,
		policy.Salary,
		policy.Distribution,
		payrollService.Options{
			Mode:       payrollService.TransferMode(cfg.Payroll.TransferMode),
			StaleAfter: cfg.Payroll.StaleAfter,
		},
	)

	router, err := appHTTP.NewRouter(JWTService, appHTTP.Handlers{
		Auth:     appHTTP.NewAuthHandler(authService),
		Employee: appHTTP.NewEmployeeHandler(employeeSvc),
		Company:  appHTTP.NewCompanyHandler(companyService),
		Payroll:  appHTTP.NewPayrollHandler(payrollSvc),
	}, appHTTP.RouterOptions{
		Env:            cfg.App.Env,
		LogLevel:       cfg.SlogLevel(),
		AllowedOrigins: cfg.App.AllowedOrigins,
		MoneyRateLimit: cfg.RateLimit.MoneyRoutes,
	})
	if err != nil {
		slog.Error("Router initialization failed", "error", err)
		os.Exit(1)
	}

	scheduler := cron.NewScheduler()
	cron.NewPayrollJobs(payrollSvc, cfg.Payroll.StaleAfter/3).RegisterJobs(scheduler)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "driver", cfg.Database.Driver, "transfer_mode", cfg.Payroll.TransferMode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}

package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/payroll-disbursement/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	Env            string
	LogLevel       slog.Level
	AllowedOrigins []string
	// MoneyRateLimit throttles top-up and transfer, e.g. "30-M".
	MoneyRateLimit string
}

type Handlers struct {
	Auth     AuthHandler
	Employee EmployeeHandler
	Company  CompanyHandler
	Payroll  PayrollHandler
}

func NewRouter(JWTService jwt.Service, h Handlers, opts RouterOptions) (*chi.Mux, error) {
	moneyLimit, err := middleware.RateLimit(opts.MoneyRateLimit)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env == "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-disbursement"),
		slog.String("version", "v1.0.0"),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{"Link", middleware.RequestIDHeader},
		MaxAge:           300,
	}))

	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", h.Auth.Login)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService))

			r.Route("/auth", func(r chi.Router) {
				r.Get("/me", h.Auth.Me)
				r.Post("/logout", h.Auth.Logout)
			})

			r.Route("/employees", func(r chi.Router) {
				r.Get("/", h.Employee.ListEmployees)
				r.Get("/{id}", h.Employee.GetEmployee)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Post("/", h.Employee.CreateEmployee)
					r.Put("/{id}", h.Employee.UpdateEmployee)
					r.Delete("/{id}", h.Employee.DeleteEmployee)
				})
			})

			r.Route("/company", func(r chi.Router) {
				r.Get("/account", h.Company.GetAccount)
				r.Get("/transactions", h.Company.ListTransactions)
				r.With(middleware.AdminOnly, moneyLimit).Post("/topup", h.Company.TopUp)
			})

			r.Route("/payroll", func(r chi.Router) {
				r.Get("/batches/pending", h.Payroll.GetPendingBatch)
				r.Get("/batches/{id}", h.Payroll.GetBatch)
				r.Get("/batches/{id}/items", h.Payroll.ListItems)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Post("/batches", h.Payroll.CreateBatch)
					r.With(moneyLimit).Post("/transfer", h.Payroll.Transfer)
				})
			})
		})
	})
	return r, nil
}

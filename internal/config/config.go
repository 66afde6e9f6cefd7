package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database  DatabaseConfig
	JWT       JWTConfig
	App       AppConfig
	Payroll   PayrollConfig
	RateLimit RateLimitConfig
	Bootstrap BootstrapConfig
}

type DatabaseConfig struct {
	Driver   string // "postgres" or "memory"
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret            string
	RefreshExpiration string
	AccessExpiration  string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// PayrollConfig holds the money-moving rules of the backend
type PayrollConfig struct {
	TransferMode string // "partial" or "atomic"
	StaleAfter   time.Duration
	TopUpMax     decimal.Decimal
	PolicyFile   string
	Policy       Policy
}

// RateLimitConfig uses the ulule/limiter "<limit>-<period>" format, e.g. "30-M"
type RateLimitConfig struct {
	MoneyRoutes string
}

// BootstrapConfig seeds a company and an admin when the user table is empty
type BootstrapConfig struct {
	CompanyName    string
	AccountNumber  string
	BankName       string
	Branch         string
	OpeningBalance decimal.Decimal
	AdminUsername  string
	AdminPassword  string
	ViewerUsername string
	ViewerPassword string
	SeedRoster     bool
}

// Enabled reports whether enough is configured to seed an empty database
func (b BootstrapConfig) Enabled() bool {
	return b.CompanyName != "" && b.AccountNumber != "" && b.AdminUsername != "" && b.AdminPassword != ""
}

const (
	TransferModePartial = "partial"
	TransferModeAtomic  = "atomic"
)

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Driver:   getEnv("DB_DRIVER", "postgres"),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "payroll"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:            getEnv("JWT_SECRET_KEY", ""),
		RefreshExpiration: getEnv("JWT_REFRESH_EXPIRATION_TIME", "168h"),
		AccessExpiration:  getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Payroll configuration
	staleAfter, err := time.ParseDuration(getEnv("PAYROLL_STALE_AFTER", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_STALE_AFTER: %w", err)
	}
	topUpMax, err := decimal.NewFromString(getEnv("PAYROLL_TOPUP_MAX", "1000000"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_TOPUP_MAX: %w", err)
	}

	config.Payroll = PayrollConfig{
		TransferMode: strings.ToLower(getEnv("PAYROLL_TRANSFER_MODE", TransferModePartial)),
		StaleAfter:   staleAfter,
		TopUpMax:     topUpMax,
		PolicyFile:   getEnv("PAYROLL_POLICY_FILE", ""),
		Policy:       DefaultPolicy(),
	}
	if config.Payroll.PolicyFile != "" {
		policy, err := LoadPolicy(config.Payroll.PolicyFile)
		if err != nil {
			return nil, err
		}
		config.Payroll.Policy = policy
	}

	config.RateLimit = RateLimitConfig{
		MoneyRoutes: getEnv("RATE_LIMIT_MONEY_ROUTES", "30-M"),
	}

	// Bootstrap configuration
	openingBalance, err := decimal.NewFromString(getEnv("BOOTSTRAP_OPENING_BALANCE", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid BOOTSTRAP_OPENING_BALANCE: %w", err)
	}

	config.Bootstrap = BootstrapConfig{
		CompanyName:    getEnv("BOOTSTRAP_COMPANY_NAME", ""),
		AccountNumber:  getEnv("BOOTSTRAP_ACCOUNT_NUMBER", ""),
		BankName:       getEnv("BOOTSTRAP_BANK_NAME", ""),
		Branch:         getEnv("BOOTSTRAP_BRANCH", ""),
		OpeningBalance: openingBalance,
		AdminUsername:  getEnv("BOOTSTRAP_ADMIN_USERNAME", ""),
		AdminPassword:  getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
		ViewerUsername: getEnv("BOOTSTRAP_VIEWER_USERNAME", ""),
		ViewerPassword: getEnv("BOOTSTRAP_VIEWER_PASSWORD", ""),
		SeedRoster:     getEnv("BOOTSTRAP_SEED_ROSTER", "false") == "true",
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Driver != "postgres" && c.Database.Driver != "memory" {
		return fmt.Errorf("DB_DRIVER must be postgres or memory")
	}
	if c.Database.Driver == "postgres" && c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Payroll.TransferMode != TransferModePartial && c.Payroll.TransferMode != TransferModeAtomic {
		return fmt.Errorf("PAYROLL_TRANSFER_MODE must be partial or atomic")
	}
	if !c.Payroll.TopUpMax.IsPositive() {
		return fmt.Errorf("PAYROLL_TOPUP_MAX must be positive")
	}
	if err := c.Payroll.Policy.Validate(); err != nil {
		return err
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL onto slog levels
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string, fallback string) []string {
	value := getEnv(env, fallback)
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

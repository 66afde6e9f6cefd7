package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// ClientConfig configures payrollctl and the client core.
type ClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	TopUpMax       decimal.Decimal
	Redis          RedisConfig

	// Username and Password let commands sign in on demand when no session
	// is stored.
	Username string
	Password string

	PolicyFile string
	Policy     Policy
}

// RedisConfig selects the session store. An empty Addr keeps sessions in memory.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

func LoadClient() (*ClientConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	timeout, err := time.ParseDuration(getEnv("PAYROLL_API_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_API_TIMEOUT: %w", err)
	}
	retryBase, err := time.ParseDuration(getEnv("PAYROLL_API_RETRY_BASE_DELAY", "300ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_API_RETRY_BASE_DELAY: %w", err)
	}
	attempts, err := strconv.Atoi(getEnv("PAYROLL_API_RETRY_ATTEMPTS", "3"))
	if err != nil || attempts < 1 {
		return nil, fmt.Errorf("invalid PAYROLL_API_RETRY_ATTEMPTS: %q", getEnv("PAYROLL_API_RETRY_ATTEMPTS", "3"))
	}
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	topUpMax, err := decimal.NewFromString(getEnv("PAYROLL_TOPUP_MAX", "1000000"))
	if err != nil || topUpMax.IsNegative() {
		return nil, fmt.Errorf("invalid PAYROLL_TOPUP_MAX: %q", getEnv("PAYROLL_TOPUP_MAX", "1000000"))
	}

	policy := DefaultPolicy()
	policyFile := getEnv("PAYROLL_POLICY_FILE", "")
	if policyFile != "" {
		if policy, err = LoadPolicy(policyFile); err != nil {
			return nil, err
		}
	}

	return &ClientConfig{
		BaseURL:        getEnv("PAYROLL_API_URL", "http://localhost:8080/api/v1"),
		Timeout:        timeout,
		RetryAttempts:  attempts,
		RetryBaseDelay: retryBase,
		TopUpMax:       topUpMax,
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", ""),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        redisDB,
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "payrollctl:"),
		},
		Username:   getEnv("PAYROLL_USERNAME", ""),
		Password:   getEnv("PAYROLL_PASSWORD", ""),
		PolicyFile: policyFile,
		Policy:     policy,
	}, nil
}

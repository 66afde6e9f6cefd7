package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/grade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy_Overrides(t *testing.T) {
	raw := []byte(`
salary:
  increment: "4000"
  medical_rate: "0.10"
grades:
  limits: {1: 1, 2: 2, 3: 2, 4: 2, 5: 2, 6: 3}
  max_headcount: 12
`)
	p, err := ParsePolicy(raw)
	require.NoError(t, err)

	assert.Equal(t, "4000", p.Salary.Increment.String())
	assert.Equal(t, "0.2", p.Salary.HouseRentRate.String())
	assert.Equal(t, "0.1", p.Salary.MedicalRate.String())
	assert.Equal(t, 12, p.Distribution.MaxHeadcount)
	assert.Equal(t, 3, p.Distribution.Limits[6])
}

func TestParsePolicy_EmptyKeepsDefaults(t *testing.T) {
	p, err := ParsePolicy([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy().Distribution, p.Distribution)
	assert.True(t, p.Salary.Increment.Equal(DefaultPolicy().Salary.Increment))
}

func TestParsePolicy_Invalid(t *testing.T) {
	_, err := ParsePolicy([]byte(`salary: {increment: "abc"}`))
	assert.Error(t, err)

	_, err = ParsePolicy([]byte(`grades: {max_headcount: 99}`))
	assert.ErrorIs(t, err, grade.ErrInvalidDistribution)

	_, err = ParsePolicy([]byte(`salary: [`))
	assert.Error(t, err)
}

func TestLoadPolicy_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("salary:\n  increment: \"6000\"\n"), 0o600))

	p, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, "6000", p.Salary.Increment.String())

	_, err = LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_MemoryDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("PAYROLL_TRANSFER_MODE", "ATOMIC")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, TransferModeAtomic, cfg.Payroll.TransferMode)
	assert.Equal(t, "1000000", cfg.Payroll.TopUpMax.String())
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("JWT_SECRET_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadClient_Defaults(t *testing.T) {
	t.Setenv("PAYROLL_API_URL", "http://api.test/api/v1")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("PAYROLL_TOPUP_MAX", "")
	t.Setenv("PAYROLL_POLICY_FILE", "")
	t.Setenv("PAYROLL_API_RETRY_ATTEMPTS", "")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "http://api.test/api/v1", cfg.BaseURL)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, "1000000", cfg.TopUpMax.String())
	assert.Equal(t, 10, cfg.Policy.Distribution.RequiredHeadcount())
}

func TestLoadClient_BadTopUpMax(t *testing.T) {
	t.Setenv("PAYROLL_TOPUP_MAX", "lots")
	_, err := LoadClient()
	assert.Error(t, err)
}

func TestLoadClient_BadAttempts(t *testing.T) {
	t.Setenv("PAYROLL_API_RETRY_ATTEMPTS", "0")
	_, err := LoadClient()
	assert.Error(t, err)
}

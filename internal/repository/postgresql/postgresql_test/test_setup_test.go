package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/company"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-disbursement/internal/repository/postgresql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// TestDatabaseSetup holds a migrated test database
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and applies migrations.
// The test is skipped when the variable is unset.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(dsn)
	require.NoError(t, err, "failed to connect to test database")

	require.NoError(t, postgresql.Migrate(context.Background(), db))

	setup := &TestDatabaseSetup{DB: db}
	require.NoError(t, setup.TruncateAllTables(context.Background()))
	t.Cleanup(setup.Close)
	return setup
}

// TruncateAllTables removes every row from every table
func (s *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tables := []string{
		"company_transactions",
		"payroll_items",
		"payroll_batches",
		"employees",
		"users",
		"companies",
	}

	return s.DB.WithinTx(ctx, func(ctx context.Context) error {
		tx, _ := database.TxFromContext(ctx)
		for _, table := range tables {
			if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
				return fmt.Errorf("failed to truncate table %s: %w", table, err)
			}
		}
		return nil
	})
}

func (s *TestDatabaseSetup) Close() {
	s.DB.Close()
}

func (s *TestDatabaseSetup) CreateCompany(t *testing.T, balance string) company.Company {
	t.Helper()
	c, err := postgresql.NewCompanyRepository(s.DB).Create(context.Background(), company.Company{
		Name:          "Test Company",
		AccountNumber: "9900112233",
		BankName:      "Test Bank",
		Branch:        "Head Office",
		Balance:       decimal.RequireFromString(balance),
	})
	require.NoError(t, err)
	return c
}

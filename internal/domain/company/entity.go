package company

import (
	"time"

	"github.com/shopspring/decimal"
)

// Company owns the funding account salaries are paid from.
type Company struct {
	ID            string
	Name          string
	AccountNumber string
	BankName      string
	Branch        string
	Balance       decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type TransactionType string

const (
	TransactionTopUp  TransactionType = "TOP_UP"
	TransactionSalary TransactionType = "SALARY"
)

// Transaction is an append-only ledger entry on the funding account.
type Transaction struct {
	ID           string
	CompanyID    string
	Type         TransactionType
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
	Description  string
	EmployeeID   *string
	BatchID      *string
	// RequestID is the caller's X-Request-ID; a top-up is applied once per id.
	RequestID *string
	CreatedAt time.Time
}

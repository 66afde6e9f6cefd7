package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID        string
	CompanyID string
	Code      string
	Name      string
	Email     *string
	Mobile    string
	Address   *string
	Grade     int
	Account   BankAccount
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BankAccount is the salary account owned by one employee.
type BankAccount struct {
	Type    AccountType
	Number  string
	Balance decimal.Decimal
	Branch  string
}

type AccountType string

const (
	AccountTypeSavings AccountType = "SAVINGS"
	AccountTypeCurrent AccountType = "CURRENT"
)

// Ranks returns the grade of every employee, in order.
func Ranks(employees []Employee) []int {
	ranks := make([]int, 0, len(employees))
	for _, e := range employees {
		ranks = append(ranks, e.Grade)
	}
	return ranks
}

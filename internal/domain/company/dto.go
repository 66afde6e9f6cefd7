package company

import (
	"time"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/salary"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type TopUpRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=255"`
	// RequestID comes from the X-Request-ID header and makes retries safe.
	RequestID string `json:"-" validate:"max=64"`
}

func (r *TopUpRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	if !r.Amount.IsPositive() {
		return validator.ValidationErrors{{Field: "amount", Message: "must be a positive number"}}
	}
	if !salary.IsCents(r.Amount) {
		return validator.ValidationErrors{{Field: "amount", Message: "must have at most 2 decimal places"}}
	}
	return nil
}

type AccountResponse struct {
	CompanyID      string          `json:"companyId"`
	Name           string          `json:"name"`
	AccountNumber  string          `json:"accountNumber"`
	BankName       string          `json:"bankName"`
	Branch         string          `json:"branch"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type TransactionFilter struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

func (f *TransactionFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Size < 1 || f.Size > 100 {
		f.Size = 20
	}
}

type TransactionResponse struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
	Description  string          `json:"description"`
	EmployeeID   *string         `json:"employeeId,omitempty"`
	BatchID      *string         `json:"batchId,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type ListTransactionResponse struct {
	Data       []TransactionResponse `json:"data"`
	TotalCount int64                 `json:"totalCount"`
	Page       int                   `json:"page"`
	Size       int                   `json:"size"`
}

func ToAccountResponse(c Company) AccountResponse {
	return AccountResponse{
		CompanyID:      c.ID,
		Name:           c.Name,
		AccountNumber:  c.AccountNumber,
		BankName:       c.BankName,
		Branch:         c.Branch,
		CurrentBalance: c.Balance,
		UpdatedAt:      c.UpdatedAt,
	}
}

func ToTransactionResponse(t Transaction) TransactionResponse {
	return TransactionResponse{
		ID:           t.ID,
		Type:         string(t.Type),
		Amount:       t.Amount,
		BalanceAfter: t.BalanceAfter,
		Description:  t.Description,
		EmployeeID:   t.EmployeeID,
		BatchID:      t.BatchID,
		CreatedAt:    t.CreatedAt,
	}
}

package payroll

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrBatchNotFound         = errors.New("payroll batch not found")
	ErrActiveBatchExists     = errors.New("an active payroll batch already exists for this company")
	ErrNoActiveBatch         = errors.New("no active payroll batch for this company")
	ErrInvalidHeadcount      = errors.New("payroll requires the full employee roster")
	ErrBaseSalaryMismatch    = errors.New("grade 6 basic does not match the active batch")
	ErrTransferInProgress    = errors.New("a transfer is already running for this batch")
	ErrInvalidPayrollMonth   = errors.New("payroll month must be formatted as YYYY-MM")
	ErrEmployeeNotInBatch    = errors.New("employee is not part of the active batch")
	ErrEmployeeAccountAbsent = errors.New("employee bank account no longer exists")
)

// InsufficientFundsError carries the amounts behind a rejected transfer. The
// message keeps the "Required: X, Available: Y" wording clients parse.
type InsufficientFundsError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return InsufficientFundsReason(e.Required, e.Available)
}

// Shortfall is Required minus Available.
func (e *InsufficientFundsError) Shortfall() decimal.Decimal {
	return e.Required.Sub(e.Available)
}

func InsufficientFundsReason(required, available decimal.Decimal) string {
	return fmt.Sprintf("Insufficient company balance. Required: %s, Available: %s",
		required.StringFixed(2), available.StringFixed(2))
}

package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus enum
type BatchStatus string

const (
	BatchStatusPending            BatchStatus = "PENDING"
	BatchStatusProcessing         BatchStatus = "PROCESSING"
	BatchStatusPartiallyCompleted BatchStatus = "PARTIALLY_COMPLETED"
	BatchStatusCompleted          BatchStatus = "COMPLETED"
	BatchStatusFailed             BatchStatus = "FAILED"
)

// IsActive reports whether the batch still blocks a new batch for its company.
func (s BatchStatus) IsActive() bool {
	switch s {
	case BatchStatusPending, BatchStatusProcessing, BatchStatusPartiallyCompleted:
		return true
	}
	return false
}

// ActiveStatuses lists the statuses counted by the one-active-batch rule.
var ActiveStatuses = []BatchStatus{BatchStatusPending, BatchStatusProcessing, BatchStatusPartiallyCompleted}

// ItemStatus enum
type ItemStatus string

const (
	ItemStatusPending    ItemStatus = "PENDING"
	ItemStatusProcessing ItemStatus = "PROCESSING"
	ItemStatusFailed     ItemStatus = "FAILED"
	ItemStatusPaid       ItemStatus = "PAID"
)

// Failure codes stored on FAILED items.
const (
	FailureInsufficientFunds = "INSUFFICIENT_FUNDS"
	FailureEmployeeMissing   = "EMPLOYEE_NOT_FOUND"
)

// Batch - one payroll run for a company
type Batch struct {
	ID             string
	CompanyID      string
	Name           string
	PayrollMonth   string // YYYY-MM
	FundingAccount string
	BaseSalary     decimal.Decimal
	TotalAmount    decimal.Decimal
	ExecutedAmount decimal.Decimal
	Status         BatchStatus
	ItemCount      int
	CreatedBy      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Item - salary snapshot of one employee inside a batch
type Item struct {
	ID            string
	BatchID       string
	EmployeeID    string
	EmployeeCode  string
	EmployeeName  string
	Grade         int
	Basic         decimal.Decimal
	HouseRent     decimal.Decimal
	Medical       decimal.Decimal
	Gross         decimal.Decimal
	Status        ItemStatus
	FailureCode   *string
	FailureReason *string
	PaidAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ResolveStatus derives the batch status from its items after a transfer.
// Only funding failures keep the batch retryable; any other failure ends it
// as FAILED, paid items or not.
func ResolveStatus(items []Item) BatchStatus {
	if len(items) == 0 {
		return BatchStatusPending
	}

	paid, hardFailures := 0, 0
	for _, it := range items {
		switch it.Status {
		case ItemStatusPaid:
			paid++
		case ItemStatusFailed:
			if it.FailureCode == nil || *it.FailureCode != FailureInsufficientFunds {
				hardFailures++
			}
		}
	}

	switch {
	case paid == len(items):
		return BatchStatusCompleted
	case hardFailures > 0:
		return BatchStatusFailed
	case paid > 0:
		return BatchStatusPartiallyCompleted
	default:
		return BatchStatusPending
	}
}

// ExecutedAmount sums the gross of PAID items.
func ExecutedAmount(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if it.Status == ItemStatusPaid {
			total = total.Add(it.Gross)
		}
	}
	return total
}

package payroll

import (
	"regexp"
	"time"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/salary"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

var payrollMonthRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ========== BATCH DTOs ==========

type CreateBatchRequest struct {
	Name             string          `json:"name" validate:"max=100"`
	PayrollMonth     string          `json:"payrollMonth"`
	CompanyID        string          `json:"companyId"`
	FundingAccountID string          `json:"fundingAccountId" validate:"required"`
	BaseSalary       decimal.Decimal `json:"baseSalary"`
}

func (r *CreateBatchRequest) Validate() error {
	var errs validator.ValidationErrors
	if err := validator.Struct(r); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			errs = append(errs, ve...)
		} else {
			return err
		}
	}

	if !r.BaseSalary.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "baseSalary", Message: "must be a positive amount"})
	} else if !salary.IsCents(r.BaseSalary) {
		errs = append(errs, validator.ValidationError{Field: "baseSalary", Message: "must have at most 2 decimal places"})
	}
	if r.PayrollMonth != "" && !payrollMonthRegex.MatchString(r.PayrollMonth) {
		errs = append(errs, validator.ValidationError{Field: "payrollMonth", Message: "must be formatted as YYYY-MM"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Defaults fills the optional name and month from now.
func (r *CreateBatchRequest) Defaults(now time.Time) {
	if r.PayrollMonth == "" {
		r.PayrollMonth = now.Format("2006-01")
	}
	if r.Name == "" {
		r.Name = "Payroll " + r.PayrollMonth
	}
}

type BatchResponse struct {
	ID               string          `json:"id"`
	CompanyID        string          `json:"companyId"`
	Name             string          `json:"name"`
	PayrollMonth     string          `json:"payrollMonth"`
	FundingAccountID string          `json:"fundingAccountId"`
	BaseSalary       decimal.Decimal `json:"baseSalary"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	ExecutedAmount   decimal.Decimal `json:"executedAmount"`
	Status           string          `json:"status"`
	ItemCount        int             `json:"itemCount"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// ========== ITEM DTOs ==========

type ItemFilter struct {
	Page int    `json:"page"`
	Size int    `json:"size"`
	Sort string `json:"sort"` // grade | code | gross | status, optional ",desc"
}

func (f *ItemFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Size < 1 || f.Size > 100 {
		f.Size = 20
	}
}

type ItemResponse struct {
	ID               string          `json:"id"`
	EmployeeID       string          `json:"employeeId"`
	EmployeeCode     string          `json:"employeeCode"`
	EmployeeName     string          `json:"employeeName"`
	Grade            int             `json:"grade"`
	Basic            decimal.Decimal `json:"basic"`
	HouseRent        decimal.Decimal `json:"houseRent"`
	MedicalAllowance decimal.Decimal `json:"medicalAllowance"`
	Gross            decimal.Decimal `json:"gross"`
	Status           string          `json:"status"`
	FailureReason    *string         `json:"failureReason,omitempty"`
	PaidAt           *time.Time      `json:"paidAt,omitempty"`
}

type ListItemResponse struct {
	Data       []ItemResponse `json:"data"`
	TotalCount int64          `json:"totalCount"`
	Page       int            `json:"page"`
	Size       int            `json:"size"`
}

// ========== TRANSFER DTOs ==========

type TransferRequest struct {
	EmployeeIDs []string        `json:"employeeIds" validate:"required,min=1,dive,required"`
	Grade6Basic decimal.Decimal `json:"grade6Basic"`
}

func (r *TransferRequest) Validate() error {
	var errs validator.ValidationErrors
	if err := validator.Struct(r); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			errs = append(errs, ve...)
		} else {
			return err
		}
	}
	if !r.Grade6Basic.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "grade6Basic", Message: "must be a positive amount"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// TransferResultStatus enum
type TransferResultStatus string

const (
	TransferSuccess TransferResultStatus = "SUCCESS"
	TransferFailed  TransferResultStatus = "FAILED"
)

type TransferResult struct {
	EmployeeID   string               `json:"employeeId"`
	EmployeeCode string               `json:"employeeCode,omitempty"`
	Amount       decimal.Decimal      `json:"amount"`
	Status       TransferResultStatus `json:"status"`
	Reason       string               `json:"reason,omitempty"`
}

type TransferResponse struct {
	BatchID             string           `json:"batchId"`
	BatchStatus         string           `json:"batchStatus"`
	TransferResults     []TransferResult `json:"transferResults"`
	TotalTransferred    decimal.Decimal  `json:"totalTransferred"`
	TotalFailed         int              `json:"totalFailed"`
	CompanyBalanceAfter decimal.Decimal  `json:"companyBalanceAfter"`
}

// ========== MAPPERS ==========

func ToBatchResponse(b Batch) BatchResponse {
	return BatchResponse{
		ID:               b.ID,
		CompanyID:        b.CompanyID,
		Name:             b.Name,
		PayrollMonth:     b.PayrollMonth,
		FundingAccountID: b.FundingAccount,
		BaseSalary:       b.BaseSalary,
		TotalAmount:      b.TotalAmount,
		ExecutedAmount:   b.ExecutedAmount,
		Status:           string(b.Status),
		ItemCount:        b.ItemCount,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func ToItemResponse(it Item) ItemResponse {
	return ItemResponse{
		ID:               it.ID,
		EmployeeID:       it.EmployeeID,
		EmployeeCode:     it.EmployeeCode,
		EmployeeName:     it.EmployeeName,
		Grade:            it.Grade,
		Basic:            it.Basic,
		HouseRent:        it.HouseRent,
		MedicalAllowance: it.Medical,
		Gross:            it.Gross,
		Status:           string(it.Status),
		FailureReason:    it.FailureReason,
		PaidAt:           it.PaidAt,
	}
}

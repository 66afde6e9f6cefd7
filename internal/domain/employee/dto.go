package employee

import (
	"strings"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/salary"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type BankAccountRequest struct {
	Type    string          `json:"type" validate:"required,oneof=SAVINGS CURRENT"`
	Number  string          `json:"number" validate:"required,min=6,max=34"`
	Balance decimal.Decimal `json:"balance"`
	Branch  string          `json:"branch" validate:"required,max=100"`
}

func (a BankAccountRequest) validate() validator.ValidationErrors {
	switch {
	case a.Balance.IsNegative():
		return validator.ValidationErrors{{Field: "account.balance", Message: "must be non-negative"}}
	case !salary.IsCents(a.Balance):
		return validator.ValidationErrors{{Field: "account.balance", Message: "must have at most 2 decimal places"}}
	}
	return nil
}

type CreateEmployeeRequest struct {
	Code    string             `json:"code" validate:"required,employeecode"`
	Name    string             `json:"name" validate:"required,max=150"`
	Email   *string            `json:"email,omitempty" validate:"omitempty,email"`
	Mobile  string             `json:"mobile" validate:"required,mobile"`
	Address *string            `json:"address,omitempty" validate:"omitempty,max=255"`
	Grade   int                `json:"grade" validate:"min=1,max=6"`
	Account BankAccountRequest `json:"account"`
}

func (r *CreateEmployeeRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}

	var errs validator.ValidationErrors
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "is required"})
	}
	errs = append(errs, r.Account.validate()...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UpdateEmployeeRequest carries a partial update; nil fields are left as is.
type UpdateEmployeeRequest struct {
	ID      string              `json:"-"`
	Code    *string             `json:"code,omitempty" validate:"omitempty,employeecode"`
	Name    *string             `json:"name,omitempty" validate:"omitempty,min=1,max=150"`
	Email   *string             `json:"email,omitempty" validate:"omitempty,email"`
	Mobile  *string             `json:"mobile,omitempty" validate:"omitempty,mobile"`
	Address *string             `json:"address,omitempty" validate:"omitempty,max=255"`
	Grade   *int                `json:"grade,omitempty" validate:"omitempty,min=1,max=6"`
	Account *BankAccountRequest `json:"account,omitempty"`
}

func (r *UpdateEmployeeRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}

	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "is required"})
	}
	if r.Account != nil {
		errs = append(errs, r.Account.validate()...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Apply merges the non-nil fields of r into e.
func (r *UpdateEmployeeRequest) Apply(e Employee) Employee {
	if r.Code != nil {
		e.Code = *r.Code
	}
	if r.Name != nil {
		e.Name = strings.TrimSpace(*r.Name)
	}
	if r.Email != nil {
		e.Email = r.Email
	}
	if r.Mobile != nil {
		e.Mobile = *r.Mobile
	}
	if r.Address != nil {
		e.Address = r.Address
	}
	if r.Grade != nil {
		e.Grade = *r.Grade
	}
	if r.Account != nil {
		e.Account = BankAccount{
			Type:    AccountType(r.Account.Type),
			Number:  r.Account.Number,
			Balance: r.Account.Balance,
			Branch:  r.Account.Branch,
		}
	}
	return e
}

// SortKey names the columns the employee list can be ordered by.
type SortKey string

const (
	SortByCode    SortKey = "code"
	SortByName    SortKey = "name"
	SortByGrade   SortKey = "grade"
	SortByBalance SortKey = "balance"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortByCode, SortByName, SortByGrade, SortByBalance:
		return true
	}
	return false
}

type EmployeeFilter struct {
	Page int    `json:"page"`
	Size int    `json:"size"`
	Sort string `json:"sort"` // "grade", "name,desc", ...
}

// ParseSort splits "key[,asc|desc]". An empty sort means grade then code.
func (f EmployeeFilter) ParseSort() (SortKey, bool, error) {
	if f.Sort == "" {
		return SortByGrade, false, nil
	}
	parts := strings.SplitN(f.Sort, ",", 2)
	key := SortKey(strings.ToLower(strings.TrimSpace(parts[0])))
	if !key.Valid() {
		return "", false, ErrInvalidSortKey
	}
	desc := len(parts) == 2 && strings.EqualFold(strings.TrimSpace(parts[1]), "desc")
	return key, desc, nil
}

func (f *EmployeeFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Size < 1 || f.Size > 100 {
		f.Size = 20
	}
}

type BankAccountResponse struct {
	Type    string          `json:"type"`
	Number  string          `json:"number"`
	Balance decimal.Decimal `json:"balance"`
	Branch  string          `json:"branch"`
}

type EmployeeResponse struct {
	ID      string              `json:"id"`
	Code    string              `json:"code"`
	Name    string              `json:"name"`
	Email   *string             `json:"email,omitempty"`
	Mobile  string              `json:"mobile"`
	Address *string             `json:"address,omitempty"`
	Grade   int                 `json:"grade"`
	Account BankAccountResponse `json:"account"`
}

type ListEmployeeResponse struct {
	Data       []EmployeeResponse `json:"data"`
	TotalCount int64              `json:"totalCount"`
	Page       int                `json:"page"`
	Size       int                `json:"size"`
}

func ToResponse(e Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:      e.ID,
		Code:    e.Code,
		Name:    e.Name,
		Email:   e.Email,
		Mobile:  e.Mobile,
		Address: e.Address,
		Grade:   e.Grade,
		Account: BankAccountResponse{
			Type:    string(e.Account.Type),
			Number:  e.Account.Number,
			Balance: e.Account.Balance,
			Branch:  e.Account.Branch,
		},
	}
}

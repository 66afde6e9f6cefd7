package employee

import "errors"

var (
	ErrEmployeeNotFound      = errors.New("employee not found")
	ErrEmployeeCodeExists    = errors.New("employee code already exists")
	ErrAccountNumberExists   = errors.New("bank account number already registered")
	ErrInvalidEmployeeCode   = errors.New("employee code must be exactly 4 digits")
	ErrInvalidPhoneNumber    = errors.New("invalid mobile number")
	ErrCompanyIDRequired     = errors.New("company id is required")
	ErrInvalidSortKey        = errors.New("invalid sort key")
	ErrActivePayrollInFlight = errors.New("employees cannot be removed while a payroll batch is active")
)

// GradeLimitError is returned when the grade distribution policy rejects a
// create or update. Reason is a ready-made form message.
type GradeLimitError struct {
	Reason string
}

func (e *GradeLimitError) Error() string {
	return e.Reason
}

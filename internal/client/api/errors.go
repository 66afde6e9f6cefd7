package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-2xx reply from the payroll service.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string]string
	RequestID  string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s (%s, http %d)", msg, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("%s (http %d)", msg, e.StatusCode)
}

func (e *Error) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

func (e *Error) IsForbidden() bool {
	return e.StatusCode == http.StatusForbidden
}

// IsRetryable is true for server-side failures only. 4xx replies never change
// on resubmission.
func (e *Error) IsRetryable() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// Codes the payroll service uses in error.code.
const (
	CodeActiveBatchExists  = "ACTIVE_BATCH_EXISTS"
	CodeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	CodeTransferInProgress = "TRANSFER_IN_PROGRESS"
	CodeValidation         = "VALIDATION_ERROR"
	CodeGradeLimit         = "GRADE_LIMIT_REACHED"
	CodeEmployeeCodeExists = "EMPLOYEE_CODE_EXISTS"
)

// IsCode reports whether err is an *Error carrying code.
func IsCode(err error, code string) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// AsError unwraps err into an *Error when it is one.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

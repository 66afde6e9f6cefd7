package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/auth"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/company"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/user"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var gradeErr *employee.GradeLimitError
	if errors.As(err, &gradeErr) {
		Unprocessable(w, "GRADE_LIMIT_REACHED", gradeErr.Reason, map[string]string{"grade": gradeErr.Reason})
		return
	}

	var fundsErr *payroll.InsufficientFundsError
	if errors.As(err, &fundsErr) {
		Unprocessable(w, "INSUFFICIENT_FUNDS", fundsErr.Error(), map[string]string{
			"required":  fundsErr.Required.StringFixed(2),
			"available": fundsErr.Available.StringFixed(2),
			"shortfall": fundsErr.Shortfall().StringFixed(2),
		})
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, jwt.ErrMissingCompanyClaim):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrTokenRevoked):
		Unauthorized(w, "Token has been revoked")
	case errors.Is(err, user.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")

	// Company domain errors
	case errors.Is(err, company.ErrCompanyNotFound):
		NotFound(w, "Company not found")
	case errors.Is(err, company.ErrCompanyMismatch):
		Forbidden(w, err.Error())
	case errors.Is(err, company.ErrInvalidTopUpAmount):
		ValidationError(w, map[string]string{"amount": err.Error()})
	case errors.Is(err, company.ErrTopUpAboveMaximum):
		Unprocessable(w, "TOPUP_ABOVE_MAXIMUM", err.Error(), nil)
	case errors.Is(err, company.ErrFundingAccountMismatch):
		Unprocessable(w, "FUNDING_ACCOUNT_MISMATCH", err.Error(), nil)

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeCodeExists):
		ConflictWithCode(w, "EMPLOYEE_CODE_EXISTS", "Employee code already exists")
	case errors.Is(err, employee.ErrAccountNumberExists):
		ConflictWithCode(w, "ACCOUNT_NUMBER_EXISTS", "Bank account number already registered")
	case errors.Is(err, employee.ErrInvalidSortKey):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, employee.ErrActivePayrollInFlight):
		ConflictWithCode(w, "PAYROLL_IN_PROGRESS", err.Error())

	// Payroll domain errors
	case errors.Is(err, payroll.ErrBatchNotFound):
		NotFound(w, "Payroll batch not found")
	case errors.Is(err, payroll.ErrNoActiveBatch):
		NotFound(w, err.Error())
	case errors.Is(err, payroll.ErrActiveBatchExists):
		ConflictWithCode(w, "ACTIVE_BATCH_EXISTS", err.Error())
	case errors.Is(err, payroll.ErrTransferInProgress):
		ConflictWithCode(w, "TRANSFER_IN_PROGRESS", err.Error())
	case errors.Is(err, payroll.ErrInvalidHeadcount):
		Unprocessable(w, "INVALID_HEADCOUNT", err.Error(), nil)
	case errors.Is(err, payroll.ErrBaseSalaryMismatch):
		Unprocessable(w, "BASE_SALARY_MISMATCH", err.Error(), nil)
	case errors.Is(err, payroll.ErrEmployeeNotInBatch):
		Unprocessable(w, "EMPLOYEE_NOT_IN_BATCH", err.Error(), nil)

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}

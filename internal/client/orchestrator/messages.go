package orchestrator

import (
	"context"
	"errors"
	"net/url"

	"github.com/cmlabs-hris/payroll-disbursement/internal/client/api"
	"github.com/cmlabs-hris/payroll-disbursement/internal/client/directory"
	"github.com/cmlabs-hris/payroll-disbursement/internal/client/ledger"
	"github.com/cmlabs-hris/payroll-disbursement/internal/client/session"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/salary"
)

// UserMessage turns any client-core error into a line fit for display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var rejected *directory.RejectedError
	if errors.As(err, &rejected) {
		return rejected.Reason
	}
	var headcount *HeadcountError
	if errors.As(err, &headcount) {
		return capitalize(headcount.Error()) + "."
	}

	switch {
	case errors.Is(err, ErrRosterNotLoaded), errors.Is(err, directory.ErrNotLoaded):
		return "Load the employee list first."
	case errors.Is(err, salary.ErrInvalidBaseSalary):
		return "Base salary must be a positive amount."
	case errors.Is(err, salary.ErrSubCentAmount), errors.Is(err, ledger.ErrSubCentAmount):
		return "Amounts can have at most 2 decimal places."
	case errors.Is(err, ledger.ErrAmountNotPositive):
		return "Top-up amount must be a positive number."
	case errors.Is(err, ledger.ErrAboveCeiling), errors.Is(err, ledger.ErrBelowShortfall):
		return capitalize(err.Error()) + "."
	case errors.Is(err, ErrStalled):
		return "Some transfers failed for reasons a top-up cannot fix. Check the batch items."
	case errors.Is(err, session.ErrNoSession):
		return "You are not signed in. Please log in."
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "The payroll service did not answer in time. Please try again."
	}

	if apiErr, ok := api.AsError(err); ok {
		switch {
		case apiErr.IsUnauthorized():
			return "Your session has expired. Please log in again."
		case apiErr.IsForbidden():
			return "You do not have permission to do that."
		case apiErr.IsRetryable():
			return "The payroll service is unavailable right now. Please try again."
		case apiErr.Message != "":
			return apiErr.Message
		}
		return apiErr.Error()
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return "Could not reach the payroll service. Check the connection and try again."
	}
	return err.Error()
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

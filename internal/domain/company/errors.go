package company

import "errors"

var (
	ErrCompanyNotFound        = errors.New("company not found")
	ErrCompanyMismatch        = errors.New("company does not match the signed-in account")
	ErrInvalidTopUpAmount     = errors.New("top-up amount must be a positive number")
	ErrTopUpAboveMaximum      = errors.New("top-up amount exceeds the allowed maximum")
	ErrFundingAccountMismatch = errors.New("funding account does not belong to the company")
	ErrTransactionNotFound    = errors.New("transaction not found")
)

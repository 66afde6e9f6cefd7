// Package ledger reads and credits the company funding account. Balances are
// always re-read from the service after a change.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/payroll-disbursement/internal/client/api"
	"github.com/cmlabs-hris/payroll-disbursement/internal/client/store"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/company"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/salary"
	"github.com/shopspring/decimal"
)

var (
	ErrAmountNotPositive = errors.New("top-up amount must be a positive number")
	ErrAboveCeiling      = errors.New("top-up amount is above the allowed maximum")
	ErrBelowShortfall    = errors.New("top-up amount does not cover the shortfall")
	ErrSubCentAmount     = errors.New("top-up amount must have at most 2 decimal places")
)

type LedgerAPI interface {
	GetAccount(ctx context.Context, companyID string) (company.AccountResponse, error)
	TopUp(ctx context.Context, req company.TopUpRequest) (company.AccountResponse, error)
	ListTransactions(ctx context.Context, page, size int) (api.Page[company.TransactionResponse], error)
}

type Ledger struct {
	api   LedgerAPI
	state *store.Store
}

func New(ledgerAPI LedgerAPI, state *store.Store) *Ledger {
	return &Ledger{api: ledgerAPI, state: state}
}

// Account fetches the funding account and caches it.
func (l *Ledger) Account(ctx context.Context, companyID string) (company.AccountResponse, error) {
	account, err := l.api.GetAccount(ctx, companyID)
	if err != nil {
		return company.AccountResponse{}, err
	}
	l.state.PutAccount(account)
	return account, nil
}

// Cached returns the last fetched account without a network call.
func (l *Ledger) Cached(companyID string) (company.AccountResponse, bool) {
	return l.state.Account(companyID)
}

// TopUp credits the account and returns the balance as re-read afterwards.
// The amount is only checked for sign and cents here; ceilings belong to TopUpGuard.
func (l *Ledger) TopUp(ctx context.Context, companyID string, req company.TopUpRequest) (company.AccountResponse, error) {
	if !req.Amount.IsPositive() {
		return company.AccountResponse{}, ErrAmountNotPositive
	}
	if !salary.IsCents(req.Amount) {
		return company.AccountResponse{}, ErrSubCentAmount
	}

	if _, err := l.api.TopUp(ctx, req); err != nil {
		return company.AccountResponse{}, err
	}
	l.state.Invalidate(store.KindAccount, companyID)
	slog.Info("company account topped up", "company_id", companyID, "amount", req.Amount.String())

	account, err := l.Account(ctx, companyID)
	if err != nil {
		return company.AccountResponse{}, fmt.Errorf("top-up accepted but the balance could not be refreshed: %w", err)
	}
	return account, nil
}

func (l *Ledger) Transactions(ctx context.Context, companyID string, page, size int) (api.Page[company.TransactionResponse], error) {
	return l.api.ListTransactions(ctx, page, size)
}

// TopUpGuard holds the presentation limits on a top-up form. Zero Max or Min
// disables that bound.
type TopUpGuard struct {
	Max decimal.Decimal
	Min decimal.Decimal
}

func DefaultGuard() TopUpGuard {
	return TopUpGuard{Max: decimal.NewFromInt(1_000_000)}
}

// WithFloor requires amounts to cover shortfall.
func (g TopUpGuard) WithFloor(shortfall decimal.Decimal) TopUpGuard {
	g.Min = shortfall
	return g
}

func (g TopUpGuard) Check(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountNotPositive
	}
	if !salary.IsCents(amount) {
		return ErrSubCentAmount
	}
	if g.Max.IsPositive() && amount.GreaterThan(g.Max) {
		return fmt.Errorf("%w of %s", ErrAboveCeiling, g.Max.StringFixed(2))
	}
	if g.Min.IsPositive() && amount.LessThan(g.Min) {
		return fmt.Errorf("%w of %s", ErrBelowShortfall, g.Min.StringFixed(2))
	}
	return nil
}

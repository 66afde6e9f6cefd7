package company

import (
	"context"

	"github.com/shopspring/decimal"
)

type CompanyRepository interface {
	Create(ctx context.Context, c Company) (Company, error)
	GetByID(ctx context.Context, id string) (Company, error)
	// GetForUpdate locks the company row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (Company, error)
	UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error
	AppendTransaction(ctx context.Context, t Transaction) (Transaction, error)
	GetTransactionByRequestID(ctx context.Context, companyID, requestID string) (Transaction, error)
	ListTransactions(ctx context.Context, companyID string, filter TransactionFilter) ([]Transaction, int64, error)
}

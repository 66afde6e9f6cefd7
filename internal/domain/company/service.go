package company

import "context"

type CompanyService interface {
	GetAccount(ctx context.Context, companyID string) (AccountResponse, error)
	TopUp(ctx context.Context, req TopUpRequest) (AccountResponse, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) (ListTransactionResponse, error)
}

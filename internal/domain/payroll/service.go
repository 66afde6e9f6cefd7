package payroll

import "context"

type PayrollService interface {
	CreateBatch(ctx context.Context, req CreateBatchRequest) (BatchResponse, error)
	GetPendingBatch(ctx context.Context, companyID string) (*BatchResponse, error)
	GetBatch(ctx context.Context, id string) (BatchResponse, error)
	ListItems(ctx context.Context, batchID string, filter ItemFilter) (ListItemResponse, error)
	Transfer(ctx context.Context, req TransferRequest) (TransferResponse, error)
	// ReleaseStaleBatches returns batches stuck in PROCESSING to the status
	// their items imply. Used by the background scheduler.
	ReleaseStaleBatches(ctx context.Context) (int, error)
}

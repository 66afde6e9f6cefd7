package payroll

import (
	"context"
	"time"
)

// PayrollRepository defines data access methods for payroll batches.
// All batch lookups include companyID to prevent cross-company access.
type PayrollRepository interface {
	// Batches
	CreateBatch(ctx context.Context, batch Batch, items []Item) (Batch, error)
	GetBatch(ctx context.Context, id string, companyID string) (Batch, error)
	GetActiveBatch(ctx context.Context, companyID string) (Batch, error)
	// GetActiveBatchForUpdate locks the active batch row until the transaction ends.
	GetActiveBatchForUpdate(ctx context.Context, companyID string) (Batch, error)
	UpdateBatch(ctx context.Context, batch Batch) error
	ListStaleProcessing(ctx context.Context, updatedBefore time.Time) ([]Batch, error)

	// Items
	ListItems(ctx context.Context, batchID string, filter ItemFilter) ([]Item, int64, error)
	ListAllItems(ctx context.Context, batchID string) ([]Item, error)
	UpdateItem(ctx context.Context, item Item) error
}

package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/payroll"
)

type payrollRepository struct {
	s *Store
}

func NewPayrollRepository(s *Store) payroll.PayrollRepository {
	return &payrollRepository{s: s}
}

func (r *payrollRepository) CreateBatch(ctx context.Context, batch payroll.Batch, items []payroll.Item) (payroll.Batch, error) {
	defer r.s.lock(ctx)()

	if batch.Status.IsActive() {
		for _, b := range r.s.batches {
			if b.CompanyID == batch.CompanyID && b.Status.IsActive() {
				return payroll.Batch{}, payroll.ErrActiveBatchExists
			}
		}
	}

	now := r.s.now()
	batch.ID = newID()
	batch.ItemCount = len(items)
	batch.CreatedAt, batch.UpdatedAt = now, now
	r.s.batches[batch.ID] = batch

	for _, it := range items {
		it.ID = newID()
		it.BatchID = batch.ID
		it.CreatedAt, it.UpdatedAt = now, now
		r.s.items[it.ID] = it
	}
	return batch, nil
}

func (r *payrollRepository) GetBatch(ctx context.Context, id string, companyID string) (payroll.Batch, error) {
	defer r.s.lock(ctx)()

	b, ok := r.s.batches[id]
	if !ok || b.CompanyID != companyID {
		return payroll.Batch{}, payroll.ErrBatchNotFound
	}
	return b, nil
}

func (r *payrollRepository) GetActiveBatch(ctx context.Context, companyID string) (payroll.Batch, error) {
	defer r.s.lock(ctx)()

	for _, b := range r.s.batches {
		if b.CompanyID == companyID && b.Status.IsActive() {
			return b, nil
		}
	}
	return payroll.Batch{}, payroll.ErrNoActiveBatch
}

func (r *payrollRepository) GetActiveBatchForUpdate(ctx context.Context, companyID string) (payroll.Batch, error) {
	return r.GetActiveBatch(ctx, companyID)
}

func (r *payrollRepository) UpdateBatch(ctx context.Context, batch payroll.Batch) error {
	defer r.s.lock(ctx)()

	existing, ok := r.s.batches[batch.ID]
	if !ok || existing.CompanyID != batch.CompanyID {
		return payroll.ErrBatchNotFound
	}
	existing.Status = batch.Status
	existing.ExecutedAmount = batch.ExecutedAmount
	existing.UpdatedAt = r.s.now()
	r.s.batches[batch.ID] = existing
	return nil
}

func (r *payrollRepository) ListStaleProcessing(ctx context.Context, updatedBefore time.Time) ([]payroll.Batch, error) {
	defer r.s.lock(ctx)()

	stale := []payroll.Batch{}
	for _, b := range r.s.batches {
		if b.Status == payroll.BatchStatusProcessing && b.UpdatedAt.Before(updatedBefore) {
			stale = append(stale, b)
		}
	}
	slices.SortFunc(stale, func(a, b payroll.Batch) int { return a.UpdatedAt.Compare(b.UpdatedAt) })
	return stale, nil
}

func (r *payrollRepository) batchItems(batchID string) []payroll.Item {
	out := []payroll.Item{}
	for _, it := range r.s.items {
		if it.BatchID == batchID {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, itemsByGradeThenCode)
	return out
}

func itemsByGradeThenCode(a, b payroll.Item) int {
	if c := cmp.Compare(a.Grade, b.Grade); c != 0 {
		return c
	}
	return strings.Compare(a.EmployeeCode, b.EmployeeCode)
}

func (r *payrollRepository) ListItems(ctx context.Context, batchID string, filter payroll.ItemFilter) ([]payroll.Item, int64, error) {
	defer r.s.lock(ctx)()
	filter.Normalize()

	items := r.batchItems(batchID)

	key, desc := "grade", false
	if filter.Sort != "" {
		parts := strings.SplitN(filter.Sort, ",", 2)
		key = strings.ToLower(strings.TrimSpace(parts[0]))
		desc = len(parts) == 2 && strings.EqualFold(strings.TrimSpace(parts[1]), "desc")
	}
	slices.SortStableFunc(items, func(a, b payroll.Item) int {
		var c int
		switch key {
		case "code":
			c = strings.Compare(a.EmployeeCode, b.EmployeeCode)
		case "gross":
			c = a.Gross.Cmp(b.Gross)
		case "status":
			c = strings.Compare(string(a.Status), string(b.Status))
		default:
			c = cmp.Compare(a.Grade, b.Grade)
		}
		if desc {
			c = -c
		}
		return c
	})

	return paginate(items, filter.Page, filter.Size), int64(len(items)), nil
}

func (r *payrollRepository) ListAllItems(ctx context.Context, batchID string) ([]payroll.Item, error) {
	defer r.s.lock(ctx)()
	return r.batchItems(batchID), nil
}

func (r *payrollRepository) UpdateItem(ctx context.Context, item payroll.Item) error {
	defer r.s.lock(ctx)()

	existing, ok := r.s.items[item.ID]
	if !ok {
		return payroll.ErrEmployeeNotInBatch
	}
	existing.Status = item.Status
	existing.FailureCode = item.FailureCode
	existing.FailureReason = item.FailureReason
	existing.PaidAt = item.PaidAt
	existing.UpdatedAt = r.s.now()
	r.s.items[item.ID] = existing
	return nil
}

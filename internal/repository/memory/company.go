package memory

import (
	"context"
	"slices"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/company"
	"github.com/shopspring/decimal"
)

type companyRepository struct {
	s *Store
}

func NewCompanyRepository(s *Store) company.CompanyRepository {
	return &companyRepository{s: s}
}

func (r *companyRepository) Create(ctx context.Context, c company.Company) (company.Company, error) {
	defer r.s.lock(ctx)()

	now := r.s.now()
	c.ID = newID()
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.companies[c.ID] = c
	return c, nil
}

func (r *companyRepository) GetByID(ctx context.Context, id string) (company.Company, error) {
	defer r.s.lock(ctx)()

	c, ok := r.s.companies[id]
	if !ok {
		return company.Company{}, company.ErrCompanyNotFound
	}
	return c, nil
}

// GetForUpdate is GetByID; the store lock already serialises writers.
func (r *companyRepository) GetForUpdate(ctx context.Context, id string) (company.Company, error) {
	return r.GetByID(ctx, id)
}

func (r *companyRepository) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	defer r.s.lock(ctx)()

	c, ok := r.s.companies[id]
	if !ok {
		return company.ErrCompanyNotFound
	}
	c.Balance = balance
	c.UpdatedAt = r.s.now()
	r.s.companies[id] = c
	return nil
}

func (r *companyRepository) AppendTransaction(ctx context.Context, t company.Transaction) (company.Transaction, error) {
	defer r.s.lock(ctx)()

	t.ID = newID()
	t.CreatedAt = r.s.now()
	r.s.transactions = append(r.s.transactions, t)
	return t, nil
}

func (r *companyRepository) GetTransactionByRequestID(ctx context.Context, companyID, requestID string) (company.Transaction, error) {
	defer r.s.lock(ctx)()

	for _, t := range r.s.transactions {
		if t.CompanyID == companyID && t.RequestID != nil && *t.RequestID == requestID {
			return t, nil
		}
	}
	return company.Transaction{}, company.ErrTransactionNotFound
}

func (r *companyRepository) ListTransactions(ctx context.Context, companyID string, filter company.TransactionFilter) ([]company.Transaction, int64, error) {
	defer r.s.lock(ctx)()
	filter.Normalize()

	var matched []company.Transaction
	for _, t := range r.s.transactions {
		if t.CompanyID == companyID {
			matched = append(matched, t)
		}
	}
	// newest first
	slices.Reverse(matched)

	return paginate(matched, filter.Page, filter.Size), int64(len(matched)), nil
}

func paginate[T any](all []T, page, size int) []T {
	start := (page - 1) * size
	if start >= len(all) {
		return []T{}
	}
	end := min(start+size, len(all))
	return all[start:end]
}

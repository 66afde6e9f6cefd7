package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

// ========== BATCHES ==========

const batchColumns = `id, company_id, name, payroll_month, funding_account, base_salary, total_amount,
	executed_amount, status, item_count, created_by, created_at, updated_at`

func scanBatch(row pgx.Row) (payroll.Batch, error) {
	var b payroll.Batch
	err := row.Scan(
		&b.ID, &b.CompanyID, &b.Name, &b.PayrollMonth, &b.FundingAccount, &b.BaseSalary, &b.TotalAmount,
		&b.ExecutedAmount, &b.Status, &b.ItemCount, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

func activeStatusList() []string {
	out := make([]string, 0, len(payroll.ActiveStatuses))
	for _, s := range payroll.ActiveStatuses {
		out = append(out, string(s))
	}
	return out
}

// CreateBatch inserts the batch and its items. It must run inside a
// transaction so a half-written batch is never visible.
func (r *payrollRepository) CreateBatch(ctx context.Context, batch payroll.Batch, items []payroll.Item) (payroll.Batch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_batches (
			company_id, name, payroll_month, funding_account, base_salary, total_amount,
			executed_amount, status, item_count, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + batchColumns

	created, err := scanBatch(q.QueryRow(ctx, query,
		batch.CompanyID, batch.Name, batch.PayrollMonth, batch.FundingAccount, batch.BaseSalary, batch.TotalAmount,
		batch.ExecutedAmount, batch.Status, len(items), batch.CreatedBy,
	))
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok && constraint == "payroll_batches_active_key" {
			return payroll.Batch{}, payroll.ErrActiveBatchExists
		}
		return payroll.Batch{}, fmt.Errorf("failed to create payroll batch: %w", err)
	}

	itemQuery := `
		INSERT INTO payroll_items (
			batch_id, employee_id, employee_code, employee_name, grade,
			basic, house_rent, medical, gross, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, it := range items {
		_, err := q.Exec(ctx, itemQuery,
			created.ID, it.EmployeeID, it.EmployeeCode, it.EmployeeName, it.Grade,
			it.Basic, it.HouseRent, it.Medical, it.Gross, it.Status,
		)
		if err != nil {
			return payroll.Batch{}, fmt.Errorf("failed to create payroll item for employee %s: %w", it.EmployeeID, err)
		}
	}

	return created, nil
}

// GetBatch implements payroll.PayrollRepository.
func (r *payrollRepository) GetBatch(ctx context.Context, id string, companyID string) (payroll.Batch, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + batchColumns + ` FROM payroll_batches WHERE id = $1 AND company_id = $2`

	b, err := scanBatch(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Batch{}, payroll.ErrBatchNotFound
		}
		return payroll.Batch{}, fmt.Errorf("failed to get payroll batch: %w", err)
	}
	return b, nil
}

func (r *payrollRepository) getActiveBatch(ctx context.Context, companyID string, lock bool) (payroll.Batch, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + batchColumns + ` FROM payroll_batches WHERE company_id = $1 AND status = ANY($2)`
	if lock {
		query += ` FOR UPDATE`
	}

	b, err := scanBatch(q.QueryRow(ctx, query, companyID, activeStatusList()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Batch{}, payroll.ErrNoActiveBatch
		}
		return payroll.Batch{}, fmt.Errorf("failed to get active payroll batch: %w", err)
	}
	return b, nil
}

// GetActiveBatch implements payroll.PayrollRepository.
func (r *payrollRepository) GetActiveBatch(ctx context.Context, companyID string) (payroll.Batch, error) {
	return r.getActiveBatch(ctx, companyID, false)
}

// GetActiveBatchForUpdate implements payroll.PayrollRepository.
func (r *payrollRepository) GetActiveBatchForUpdate(ctx context.Context, companyID string) (payroll.Batch, error) {
	return r.getActiveBatch(ctx, companyID, true)
}

// UpdateBatch implements payroll.PayrollRepository.
func (r *payrollRepository) UpdateBatch(ctx context.Context, batch payroll.Batch) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_batches
		SET status = $1, executed_amount = $2, updated_at = NOW()
		WHERE id = $3 AND company_id = $4
	`

	tag, err := q.Exec(ctx, query, batch.Status, batch.ExecutedAmount, batch.ID, batch.CompanyID)
	if err != nil {
		return fmt.Errorf("failed to update payroll batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrBatchNotFound
	}
	return nil
}

// ListStaleProcessing implements payroll.PayrollRepository.
func (r *payrollRepository) ListStaleProcessing(ctx context.Context, updatedBefore time.Time) ([]payroll.Batch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + batchColumns + `
		FROM payroll_batches
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at ASC
	`

	rows, err := q.Query(ctx, query, payroll.BatchStatusProcessing, updatedBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale payroll batches: %w", err)
	}
	defer rows.Close()

	batches := []payroll.Batch{}
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll batch: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return batches, nil
}

// ========== ITEMS ==========

const itemColumns = `id, batch_id, employee_id, employee_code, employee_name, grade, basic, house_rent,
	medical, gross, status, failure_code, failure_reason, paid_at, created_at, updated_at`

func scanItem(row pgx.Row) (payroll.Item, error) {
	var it payroll.Item
	err := row.Scan(
		&it.ID, &it.BatchID, &it.EmployeeID, &it.EmployeeCode, &it.EmployeeName, &it.Grade, &it.Basic, &it.HouseRent,
		&it.Medical, &it.Gross, &it.Status, &it.FailureCode, &it.FailureReason, &it.PaidAt, &it.CreatedAt, &it.UpdatedAt,
	)
	return it, err
}

func collectItems(rows pgx.Rows) ([]payroll.Item, error) {
	items := []payroll.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

var itemSortColumns = map[string]string{
	"grade":  "grade",
	"code":   "employee_code",
	"gross":  "gross",
	"status": "status",
}

// ListItems implements payroll.PayrollRepository.
func (r *payrollRepository) ListItems(ctx context.Context, batchID string, filter payroll.ItemFilter) ([]payroll.Item, int64, error) {
	q := GetQuerier(ctx, r.db)
	filter.Normalize()

	var totalCount int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM payroll_items WHERE batch_id = $1`, batchID).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll items: %w", err)
	}

	sortColumn, sortOrder := "grade", "ASC"
	if filter.Sort != "" {
		parts := strings.SplitN(filter.Sort, ",", 2)
		if col, ok := itemSortColumns[strings.ToLower(strings.TrimSpace(parts[0]))]; ok {
			sortColumn = col
		}
		if len(parts) == 2 && strings.EqualFold(strings.TrimSpace(parts[1]), "desc") {
			sortOrder = "DESC"
		}
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM payroll_items
		WHERE batch_id = $1
		ORDER BY %s %s, grade ASC, employee_code ASC
		LIMIT $2 OFFSET $3
	`, itemColumns, sortColumn, sortOrder)

	rows, err := q.Query(ctx, query, batchID, filter.Size, (filter.Page-1)*filter.Size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll items: %w", err)
	}
	defer rows.Close()

	items, err := collectItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, totalCount, nil
}

// ListAllItems implements payroll.PayrollRepository.
func (r *payrollRepository) ListAllItems(ctx context.Context, batchID string) ([]payroll.Item, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + itemColumns + ` FROM payroll_items WHERE batch_id = $1 ORDER BY grade ASC, employee_code ASC`

	rows, err := q.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// UpdateItem implements payroll.PayrollRepository.
func (r *payrollRepository) UpdateItem(ctx context.Context, item payroll.Item) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_items
		SET status = $1, failure_code = $2, failure_reason = $3, paid_at = $4, updated_at = NOW()
		WHERE id = $5
	`

	tag, err := q.Exec(ctx, query, item.Status, item.FailureCode, item.FailureReason, item.PaidAt, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update payroll item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrEmployeeNotInBatch
	}
	return nil
}

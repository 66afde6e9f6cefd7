package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/company"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type companyRepositoryImpl struct {
	db *database.DB
}

func NewCompanyRepository(db *database.DB) company.CompanyRepository {
	return &companyRepositoryImpl{db: db}
}

const companyColumns = `id, name, account_number, bank_name, branch, balance, created_at, updated_at`

func scanCompany(row pgx.Row) (company.Company, error) {
	var c company.Company
	err := row.Scan(&c.ID, &c.Name, &c.AccountNumber, &c.BankName, &c.Branch, &c.Balance, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Create implements company.CompanyRepository.
func (c *companyRepositoryImpl) Create(ctx context.Context, newCompany company.Company) (company.Company, error) {
	q := GetQuerier(ctx, c.db)

	query := `
		INSERT INTO companies (name, account_number, bank_name, branch, balance)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + companyColumns

	created, err := scanCompany(q.QueryRow(ctx, query,
		newCompany.Name, newCompany.AccountNumber, newCompany.BankName, newCompany.Branch, newCompany.Balance,
	))
	if err != nil {
		return company.Company{}, fmt.Errorf("failed to create company: %w", err)
	}
	return created, nil
}

// GetByID implements company.CompanyRepository.
func (c *companyRepositoryImpl) GetByID(ctx context.Context, id string) (company.Company, error) {
	q := GetQuerier(ctx, c.db)

	found, err := scanCompany(q.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return company.Company{}, company.ErrCompanyNotFound
		}
		return company.Company{}, fmt.Errorf("failed to get company by id: %w", err)
	}
	return found, nil
}

// GetForUpdate implements company.CompanyRepository.
func (c *companyRepositoryImpl) GetForUpdate(ctx context.Context, id string) (company.Company, error) {
	q := GetQuerier(ctx, c.db)

	found, err := scanCompany(q.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return company.Company{}, company.ErrCompanyNotFound
		}
		return company.Company{}, fmt.Errorf("failed to lock company: %w", err)
	}
	return found, nil
}

// UpdateBalance implements company.CompanyRepository.
func (c *companyRepositoryImpl) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	q := GetQuerier(ctx, c.db)

	tag, err := q.Exec(ctx, `UPDATE companies SET balance = $1, updated_at = NOW() WHERE id = $2`, balance, id)
	if err != nil {
		return fmt.Errorf("failed to update company balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return company.ErrCompanyNotFound
	}
	return nil
}

// ========== LEDGER ==========

const transactionColumns = `id, company_id, type, amount, balance_after, description, employee_id, batch_id, request_id, created_at`

func scanTransaction(row pgx.Row) (company.Transaction, error) {
	var t company.Transaction
	err := row.Scan(&t.ID, &t.CompanyID, &t.Type, &t.Amount, &t.BalanceAfter, &t.Description, &t.EmployeeID, &t.BatchID, &t.RequestID, &t.CreatedAt)
	return t, err
}

// AppendTransaction implements company.CompanyRepository.
func (c *companyRepositoryImpl) AppendTransaction(ctx context.Context, t company.Transaction) (company.Transaction, error) {
	q := GetQuerier(ctx, c.db)

	query := `
		INSERT INTO company_transactions (company_id, type, amount, balance_after, description, employee_id, batch_id, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + transactionColumns

	created, err := scanTransaction(q.QueryRow(ctx, query,
		t.CompanyID, t.Type, t.Amount, t.BalanceAfter, t.Description, t.EmployeeID, t.BatchID, t.RequestID,
	))
	if err != nil {
		return company.Transaction{}, fmt.Errorf("failed to append transaction: %w", err)
	}
	return created, nil
}

// GetTransactionByRequestID implements company.CompanyRepository.
func (c *companyRepositoryImpl) GetTransactionByRequestID(ctx context.Context, companyID, requestID string) (company.Transaction, error) {
	q := GetQuerier(ctx, c.db)

	query := `SELECT ` + transactionColumns + ` FROM company_transactions WHERE company_id = $1 AND request_id = $2`
	found, err := scanTransaction(q.QueryRow(ctx, query, companyID, requestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return company.Transaction{}, company.ErrTransactionNotFound
		}
		return company.Transaction{}, fmt.Errorf("failed to get transaction by request id: %w", err)
	}
	return found, nil
}

// ListTransactions implements company.CompanyRepository.
func (c *companyRepositoryImpl) ListTransactions(ctx context.Context, companyID string, filter company.TransactionFilter) ([]company.Transaction, int64, error) {
	q := GetQuerier(ctx, c.db)
	filter.Normalize()

	var totalCount int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM company_transactions WHERE company_id = $1`, companyID).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM company_transactions
		WHERE company_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := q.Query(ctx, query, companyID, filter.Size, (filter.Page-1)*filter.Size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []company.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return transactions, totalCount, nil
}

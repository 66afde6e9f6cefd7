package company

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/company"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/jwt"
	"github.com/shopspring/decimal"
)

const defaultTopUpDescription = "Company account top-up"

type CompanyServiceImpl struct {
	db          database.Transactor
	companyRepo company.CompanyRepository
	topUpMax    decimal.Decimal
}

func NewCompanyService(db database.Transactor, companyRepo company.CompanyRepository, topUpMax decimal.Decimal) company.CompanyService {
	return &CompanyServiceImpl{
		db:          db,
		companyRepo: companyRepo,
		topUpMax:    topUpMax,
	}
}

// resolveCompany returns the signed-in company. An explicit companyID must match it.
func resolveCompany(ctx context.Context, companyID string) (string, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	if companyID != "" && companyID != claims.CompanyID {
		return "", company.ErrCompanyMismatch
	}
	return claims.CompanyID, nil
}

// GetAccount implements company.CompanyService.
func (s *CompanyServiceImpl) GetAccount(ctx context.Context, companyID string) (company.AccountResponse, error) {
	companyID, err := resolveCompany(ctx, companyID)
	if err != nil {
		return company.AccountResponse{}, err
	}

	c, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return company.AccountResponse{}, err
	}
	return company.ToAccountResponse(c), nil
}

// TopUp implements company.CompanyService.
func (s *CompanyServiceImpl) TopUp(ctx context.Context, req company.TopUpRequest) (company.AccountResponse, error) {
	if err := req.Validate(); err != nil {
		return company.AccountResponse{}, err
	}
	if !s.topUpMax.IsZero() && req.Amount.GreaterThan(s.topUpMax) {
		return company.AccountResponse{}, company.ErrTopUpAboveMaximum
	}

	companyID, err := resolveCompany(ctx, "")
	if err != nil {
		return company.AccountResponse{}, err
	}

	description := req.Description
	if description == "" {
		description = defaultTopUpDescription
	}

	var (
		updated   company.Company
		replayed  bool
		requestID *string
	)
	if req.RequestID != "" {
		requestID = &req.RequestID
	}
	err = s.db.WithinTx(ctx, func(ctx context.Context) error {
		locked, err := s.companyRepo.GetForUpdate(ctx, companyID)
		if err != nil {
			return err
		}

		if requestID != nil {
			_, err := s.companyRepo.GetTransactionByRequestID(ctx, companyID, *requestID)
			switch {
			case err == nil:
				replayed = true
				updated = locked
				return nil
			case !errors.Is(err, company.ErrTransactionNotFound):
				return fmt.Errorf("failed to check top-up request: %w", err)
			}
		}

		next := locked.Balance.Add(req.Amount)
		if err := s.companyRepo.UpdateBalance(ctx, companyID, next); err != nil {
			return err
		}

		if _, err := s.companyRepo.AppendTransaction(ctx, company.Transaction{
			CompanyID:    companyID,
			Type:         company.TransactionTopUp,
			Amount:       req.Amount,
			BalanceAfter: next,
			Description:  description,
			RequestID:    requestID,
		}); err != nil {
			return fmt.Errorf("failed to record top-up: %w", err)
		}

		updated, err = s.companyRepo.GetByID(ctx, companyID)
		return err
	})
	if err != nil {
		return company.AccountResponse{}, err
	}

	if replayed {
		slog.Warn("repeated top-up request ignored", "company_id", companyID, "request_id", req.RequestID)
		return company.ToAccountResponse(updated), nil
	}
	slog.Info("company account topped up", "company_id", companyID, "amount", req.Amount.String(), "balance", updated.Balance.String())
	return company.ToAccountResponse(updated), nil
}

// ListTransactions implements company.CompanyService.
func (s *CompanyServiceImpl) ListTransactions(ctx context.Context, filter company.TransactionFilter) (company.ListTransactionResponse, error) {
	companyID, err := resolveCompany(ctx, "")
	if err != nil {
		return company.ListTransactionResponse{}, err
	}

	filter.Normalize()
	transactions, total, err := s.companyRepo.ListTransactions(ctx, companyID, filter)
	if err != nil {
		return company.ListTransactionResponse{}, err
	}

	data := make([]company.TransactionResponse, 0, len(transactions))
	for _, t := range transactions {
		data = append(data, company.ToTransactionResponse(t))
	}

	return company.ListTransactionResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Size:       filter.Size,
	}, nil
}

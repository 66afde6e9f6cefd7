package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/company"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/grade"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/salary"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-disbursement/internal/pkg/jwt"
	"github.com/shopspring/decimal"
)

// TransferMode selects how a transfer reacts to a short funding account.
type TransferMode string

const (
	// TransferPartial pays item by item and fails the ones that no longer fit.
	TransferPartial TransferMode = "partial"
	// TransferAtomic pays everything or nothing.
	TransferAtomic TransferMode = "atomic"
)

type Options struct {
	Mode       TransferMode
	StaleAfter time.Duration
	Now        func() time.Time
}

type PayrollServiceImpl struct {
	db           database.Transactor
	payrollRepo  payroll.PayrollRepository
	employeeRepo employee.EmployeeRepository
	companyRepo  company.CompanyRepository
	policy       salary.Policy
	distribution grade.Distribution
	opts         Options
}

func NewPayrollService(
	db database.Transactor,
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	companyRepo company.CompanyRepository,
	policy salary.Policy,
	distribution grade.Distribution,
	opts Options,
) payroll.PayrollService {
	if opts.Mode == "" {
		opts.Mode = TransferPartial
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 15 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &PayrollServiceImpl{
		db:           db,
		payrollRepo:  payrollRepo,
		employeeRepo: employeeRepo,
		companyRepo:  companyRepo,
		policy:       policy,
		distribution: distribution,
		opts:         opts,
	}
}

func resolveCompany(ctx context.Context, companyID string) (jwt.Claims, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return jwt.Claims{}, err
	}
	if companyID != "" && companyID != claims.CompanyID {
		return jwt.Claims{}, company.ErrCompanyMismatch
	}
	return claims, nil
}

// ========== BATCHES ==========

// CreateBatch implements payroll.PayrollService.
func (s *PayrollServiceImpl) CreateBatch(ctx context.Context, req payroll.CreateBatchRequest) (payroll.BatchResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.BatchResponse{}, err
	}

	claims, err := resolveCompany(ctx, req.CompanyID)
	if err != nil {
		return payroll.BatchResponse{}, err
	}
	req.Defaults(s.opts.Now())

	var created payroll.Batch
	err = s.db.WithinTx(ctx, func(ctx context.Context) error {
		funding, err := s.companyRepo.GetByID(ctx, claims.CompanyID)
		if err != nil {
			return err
		}
		if req.FundingAccountID != funding.AccountNumber && req.FundingAccountID != funding.ID {
			return company.ErrFundingAccountMismatch
		}

		if _, err := s.payrollRepo.GetActiveBatch(ctx, claims.CompanyID); err == nil {
			return payroll.ErrActiveBatchExists
		} else if !errors.Is(err, payroll.ErrNoActiveBatch) {
			return fmt.Errorf("failed to check active batch: %w", err)
		}

		roster, err := s.employeeRepo.ListAll(ctx, claims.CompanyID)
		if err != nil {
			return fmt.Errorf("failed to load roster: %w", err)
		}
		if len(roster) != s.distribution.RequiredHeadcount() {
			return fmt.Errorf("%w: have %d, need %d", payroll.ErrInvalidHeadcount, len(roster), s.distribution.RequiredHeadcount())
		}

		items := make([]payroll.Item, 0, len(roster))
		total := decimal.Zero
		for _, e := range roster {
			b, err := s.policy.Compute(e.Grade, req.BaseSalary)
			if err != nil {
				return err
			}
			items = append(items, payroll.Item{
				EmployeeID:   e.ID,
				EmployeeCode: e.Code,
				EmployeeName: e.Name,
				Grade:        e.Grade,
				Basic:        b.Basic,
				HouseRent:    b.HouseRent,
				Medical:      b.MedicalAllowance,
				Gross:        b.Gross,
				Status:       payroll.ItemStatusPending,
			})
			total = total.Add(b.Gross)
		}

		createdBy := claims.UserID
		created, err = s.payrollRepo.CreateBatch(ctx, payroll.Batch{
			CompanyID:      claims.CompanyID,
			Name:           req.Name,
			PayrollMonth:   req.PayrollMonth,
			FundingAccount: funding.AccountNumber,
			BaseSalary:     req.BaseSalary,
			TotalAmount:    total,
			ExecutedAmount: decimal.Zero,
			Status:         payroll.BatchStatusPending,
			CreatedBy:      &createdBy,
		}, items)
		return err
	})
	if err != nil {
		return payroll.BatchResponse{}, err
	}

	slog.Info("payroll batch created",
		"batch_id", created.ID,
		"company_id", created.CompanyID,
		"total_amount", created.TotalAmount.String(),
		"items", created.ItemCount,
	)
	return payroll.ToBatchResponse(created), nil
}

// GetPendingBatch implements payroll.PayrollService. It returns nil when the
// company has no active batch.
func (s *PayrollServiceImpl) GetPendingBatch(ctx context.Context, companyID string) (*payroll.BatchResponse, error) {
	claims, err := resolveCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	b, err := s.payrollRepo.GetActiveBatch(ctx, claims.CompanyID)
	if err != nil {
		if errors.Is(err, payroll.ErrNoActiveBatch) {
			return nil, nil
		}
		return nil, err
	}
	resp := payroll.ToBatchResponse(b)
	return &resp, nil
}

// GetBatch implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetBatch(ctx context.Context, id string) (payroll.BatchResponse, error) {
	claims, err := resolveCompany(ctx, "")
	if err != nil {
		return payroll.BatchResponse{}, err
	}

	b, err := s.payrollRepo.GetBatch(ctx, id, claims.CompanyID)
	if err != nil {
		return payroll.BatchResponse{}, err
	}
	return payroll.ToBatchResponse(b), nil
}

// ListItems implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListItems(ctx context.Context, batchID string, filter payroll.ItemFilter) (payroll.ListItemResponse, error) {
	claims, err := resolveCompany(ctx, "")
	if err != nil {
		return payroll.ListItemResponse{}, err
	}

	if _, err := s.payrollRepo.GetBatch(ctx, batchID, claims.CompanyID); err != nil {
		return payroll.ListItemResponse{}, err
	}

	filter.Normalize()
	items, total, err := s.payrollRepo.ListItems(ctx, batchID, filter)
	if err != nil {
		return payroll.ListItemResponse{}, err
	}

	data := make([]payroll.ItemResponse, 0, len(items))
	for _, it := range items {
		data = append(data, payroll.ToItemResponse(it))
	}
	return payroll.ListItemResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Size:       filter.Size,
	}, nil
}

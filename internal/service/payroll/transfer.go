package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/company"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

const alreadyPaidReason = "Already paid"

// Transfer implements payroll.PayrollService.
//
// The active batch is claimed (PROCESSING) in its own transaction, the
// requested items are paid in rank order, and the batch status is then
// recomputed from its items. A claimed batch blocks concurrent transfers
// until it is settled or released by ReleaseStaleBatches.
func (s *PayrollServiceImpl) Transfer(ctx context.Context, req payroll.TransferRequest) (payroll.TransferResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.TransferResponse{}, err
	}

	claims, err := resolveCompany(ctx, "")
	if err != nil {
		return payroll.TransferResponse{}, err
	}

	batch, queue, err := s.claimBatch(ctx, claims.CompanyID, req)
	if err != nil {
		return payroll.TransferResponse{}, err
	}

	results, payErr := s.payItems(ctx, batch, queue)

	// settle even when paying failed so the batch never stays claimed
	settled, balance, err := s.settleBatch(ctx, batch)
	if err != nil {
		return payroll.TransferResponse{}, err
	}
	if payErr != nil {
		return payroll.TransferResponse{}, payErr
	}

	resp := payroll.TransferResponse{
		BatchID:             settled.ID,
		BatchStatus:         string(settled.Status),
		TransferResults:     results,
		TotalTransferred:    decimal.Zero,
		CompanyBalanceAfter: balance,
	}
	for _, r := range results {
		switch {
		case r.Status == payroll.TransferFailed:
			resp.TotalFailed++
		case r.Reason != alreadyPaidReason:
			resp.TotalTransferred = resp.TotalTransferred.Add(r.Amount)
		}
	}

	slog.Info("payroll transfer finished",
		"batch_id", settled.ID,
		"status", settled.Status,
		"transferred", resp.TotalTransferred.String(),
		"failed", resp.TotalFailed,
		"balance_after", balance.String(),
	)
	return resp, nil
}

// claimBatch validates the request against the active batch and marks it
// PROCESSING. The returned queue holds the requested items in rank order.
func (s *PayrollServiceImpl) claimBatch(ctx context.Context, companyID string, req payroll.TransferRequest) (payroll.Batch, []payroll.Item, error) {
	var (
		batch payroll.Batch
		queue []payroll.Item
	)

	err := s.db.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		batch, err = s.payrollRepo.GetActiveBatchForUpdate(ctx, companyID)
		if err != nil {
			return err
		}
		if batch.Status == payroll.BatchStatusProcessing {
			return payroll.ErrTransferInProgress
		}
		if !req.Grade6Basic.Equal(batch.BaseSalary) {
			return payroll.ErrBaseSalaryMismatch
		}

		items, err := s.payrollRepo.ListAllItems(ctx, batch.ID)
		if err != nil {
			return err
		}

		requested := make(map[string]bool, len(req.EmployeeIDs))
		for _, id := range req.EmployeeIDs {
			requested[id] = true
		}
		unpaid := decimal.Zero
		for _, it := range items {
			if !requested[it.EmployeeID] {
				continue
			}
			delete(requested, it.EmployeeID)
			queue = append(queue, it)
			if it.Status != payroll.ItemStatusPaid {
				unpaid = unpaid.Add(it.Gross)
			}
		}
		if len(requested) > 0 {
			return payroll.ErrEmployeeNotInBatch
		}

		if s.opts.Mode == TransferAtomic {
			funding, err := s.companyRepo.GetForUpdate(ctx, companyID)
			if err != nil {
				return err
			}
			if funding.Balance.LessThan(unpaid) {
				return &payroll.InsufficientFundsError{Required: unpaid, Available: funding.Balance}
			}
		}

		batch.Status = payroll.BatchStatusProcessing
		return s.payrollRepo.UpdateBatch(ctx, batch)
	})
	return batch, queue, err
}

func (s *PayrollServiceImpl) payItems(ctx context.Context, batch payroll.Batch, queue []payroll.Item) ([]payroll.TransferResult, error) {
	results := make([]payroll.TransferResult, 0, len(queue))

	pay := func(ctx context.Context) error {
		for _, it := range queue {
			res, err := s.payItem(ctx, batch, it)
			if err != nil {
				return err
			}
			if s.opts.Mode == TransferAtomic && res.Status == payroll.TransferFailed {
				// funds moved under us since the pre-check; undo the whole run
				return fmt.Errorf("atomic transfer aborted at employee %s: %s", it.EmployeeCode, res.Reason)
			}
			results = append(results, res)
		}
		return nil
	}

	if s.opts.Mode == TransferAtomic {
		if err := s.db.WithinTx(ctx, pay); err != nil {
			return nil, err
		}
		return results, nil
	}
	return results, pay(ctx)
}

// payItem moves one salary in its own transaction (or the caller's, in atomic mode).
func (s *PayrollServiceImpl) payItem(ctx context.Context, batch payroll.Batch, it payroll.Item) (payroll.TransferResult, error) {
	result := payroll.TransferResult{
		EmployeeID:   it.EmployeeID,
		EmployeeCode: it.EmployeeCode,
		Amount:       it.Gross,
	}

	if it.Status == payroll.ItemStatusPaid {
		result.Status = payroll.TransferSuccess
		result.Reason = alreadyPaidReason
		return result, nil
	}

	err := s.db.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.employeeRepo.GetByID(ctx, it.EmployeeID, batch.CompanyID); err != nil {
			if !errors.Is(err, employee.ErrEmployeeNotFound) {
				return err
			}
			result.Status = payroll.TransferFailed
			result.Reason = payroll.ErrEmployeeAccountAbsent.Error()
			return s.failItem(ctx, it, payroll.FailureEmployeeMissing, result.Reason)
		}

		funding, err := s.companyRepo.GetForUpdate(ctx, batch.CompanyID)
		if err != nil {
			return err
		}
		if funding.Balance.LessThan(it.Gross) {
			result.Status = payroll.TransferFailed
			result.Reason = payroll.InsufficientFundsReason(it.Gross, funding.Balance)
			return s.failItem(ctx, it, payroll.FailureInsufficientFunds, result.Reason)
		}

		next := funding.Balance.Sub(it.Gross)
		if err := s.companyRepo.UpdateBalance(ctx, batch.CompanyID, next); err != nil {
			return err
		}
		if _, err := s.employeeRepo.CreditAccount(ctx, it.EmployeeID, batch.CompanyID, it.Gross); err != nil {
			return err
		}

		employeeID, batchID := it.EmployeeID, batch.ID
		if _, err := s.companyRepo.AppendTransaction(ctx, company.Transaction{
			CompanyID:    batch.CompanyID,
			Type:         company.TransactionSalary,
			Amount:       it.Gross,
			BalanceAfter: next,
			Description:  fmt.Sprintf("Salary %s for %s (%s)", batch.PayrollMonth, it.EmployeeName, it.EmployeeCode),
			EmployeeID:   &employeeID,
			BatchID:      &batchID,
		}); err != nil {
			return fmt.Errorf("failed to record salary transfer: %w", err)
		}

		now := s.opts.Now()
		it.Status = payroll.ItemStatusPaid
		it.PaidAt = &now
		it.FailureCode = nil
		it.FailureReason = nil
		if err := s.payrollRepo.UpdateItem(ctx, it); err != nil {
			return err
		}

		result.Status = payroll.TransferSuccess
		return nil
	})
	if err != nil {
		return payroll.TransferResult{}, fmt.Errorf("failed to pay employee %s: %w", it.EmployeeCode, err)
	}
	return result, nil
}

func (s *PayrollServiceImpl) failItem(ctx context.Context, it payroll.Item, code, reason string) error {
	it.Status = payroll.ItemStatusFailed
	it.FailureCode = &code
	it.FailureReason = &reason
	it.PaidAt = nil
	return s.payrollRepo.UpdateItem(ctx, it)
}

// settleBatch derives the batch status and executed amount from its items.
func (s *PayrollServiceImpl) settleBatch(ctx context.Context, batch payroll.Batch) (payroll.Batch, decimal.Decimal, error) {
	var balance decimal.Decimal

	err := s.db.WithinTx(ctx, func(ctx context.Context) error {
		items, err := s.payrollRepo.ListAllItems(ctx, batch.ID)
		if err != nil {
			return err
		}

		batch.Status = payroll.ResolveStatus(items)
		batch.ExecutedAmount = payroll.ExecutedAmount(items)
		if err := s.payrollRepo.UpdateBatch(ctx, batch); err != nil {
			return err
		}

		funding, err := s.companyRepo.GetByID(ctx, batch.CompanyID)
		if err != nil {
			return err
		}
		balance = funding.Balance
		return nil
	})
	if err != nil {
		return payroll.Batch{}, decimal.Zero, fmt.Errorf("failed to settle payroll batch: %w", err)
	}
	return batch, balance, nil
}

// ReleaseStaleBatches implements payroll.PayrollService. Batches left in
// PROCESSING longer than StaleAfter are settled from their items.
func (s *PayrollServiceImpl) ReleaseStaleBatches(ctx context.Context) (int, error) {
	stale, err := s.payrollRepo.ListStaleProcessing(ctx, s.opts.Now().Add(-s.opts.StaleAfter))
	if err != nil {
		return 0, err
	}

	released := 0
	for _, b := range stale {
		settled, _, err := s.settleBatch(ctx, b)
		if err != nil {
			slog.Error("failed to release stale payroll batch", "batch_id", b.ID, "error", err)
			continue
		}
		slog.Warn("released stale payroll batch", "batch_id", b.ID, "company_id", b.CompanyID, "status", settled.Status)
		released++
	}
	return released, nil
}

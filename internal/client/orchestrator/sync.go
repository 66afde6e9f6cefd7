package orchestrator

import (
	"context"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/company"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/payroll"
	"golang.org/x/sync/errgroup"
)

// RosterLoader reloads the employee roster into the shared store.
type RosterLoader interface {
	Reload(ctx context.Context) ([]employee.EmployeeResponse, error)
}

// Snapshot is everything a payroll view shows, read in one pass.
type Snapshot struct {
	Account company.AccountResponse
	Roster  []employee.EmployeeResponse
	Batch   *payroll.BatchResponse
	State   State
}

// Sync re-reads the account, the roster and the active batch in parallel.
func (o *Orchestrator) Sync(ctx context.Context, companyID string, roster RosterLoader) (Snapshot, error) {
	var snap Snapshot
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		account, err := o.ledger.Account(gCtx, companyID)
		if err != nil {
			return err
		}
		snap.Account = account
		return nil
	})

	g.Go(func() error {
		list, err := roster.Reload(gCtx)
		if err != nil {
			return err
		}
		snap.Roster = list
		return nil
	})

	g.Go(func() error {
		batch, err := o.PendingBatch(gCtx, companyID)
		if err != nil {
			return err
		}
		snap.Batch = batch
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	snap.State = StateOf(snap.Batch)
	return snap, nil
}

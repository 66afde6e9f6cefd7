// Package orchestrator drives one company's payroll batch: create or adopt,
// transfer, and the insufficient-funds top-up loop.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cmlabs-hris/payroll-disbursement/internal/client/api"
	"github.com/cmlabs-hris/payroll-disbursement/internal/client/ledger"
	"github.com/cmlabs-hris/payroll-disbursement/internal/client/session"
	"github.com/cmlabs-hris/payroll-disbursement/internal/client/store"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/grade"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/salary"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

var ErrRosterNotLoaded = errors.New("employee roster has not been loaded")

// HeadcountError rejects a batch before any request is sent.
type HeadcountError struct {
	Have int
	Need int
}

func (e *HeadcountError) Error() string {
	return fmt.Sprintf("payroll needs exactly %d employees, found %d", e.Need, e.Have)
}

// PayrollAPI is the slice of the api client the orchestrator needs.
type PayrollAPI interface {
	CreateBatch(ctx context.Context, req payroll.CreateBatchRequest) (payroll.BatchResponse, error)
	PendingBatch(ctx context.Context, companyID string) (*payroll.BatchResponse, error)
	GetBatch(ctx context.Context, id string) (payroll.BatchResponse, error)
	ListBatchItems(ctx context.Context, batchID string, page, size int, sort string) (api.Page[payroll.ItemResponse], error)
	Transfer(ctx context.Context, req payroll.TransferRequest) (payroll.TransferResponse, error)
}

// ========== STATE ==========

type State string

const (
	StateNoBatch            State = "NO_BATCH"
	StatePending            State = "PENDING"
	StateProcessing         State = "PROCESSING"
	StateCompleted          State = "COMPLETED"
	StateFailed             State = "FAILED"
	StatePartiallyCompleted State = "PARTIALLY_COMPLETED"
)

// StateOf maps a batch as reported by the service. Nil is NoBatch.
func StateOf(b *payroll.BatchResponse) State {
	if b == nil {
		return StateNoBatch
	}
	switch payroll.BatchStatus(b.Status) {
	case payroll.BatchStatusPending:
		return StatePending
	case payroll.BatchStatusProcessing:
		return StateProcessing
	case payroll.BatchStatusCompleted:
		return StateCompleted
	case payroll.BatchStatusFailed:
		return StateFailed
	case payroll.BatchStatusPartiallyCompleted:
		return StatePartiallyCompleted
	}
	return StateNoBatch
}

// Terminal is true for batches no transfer can change.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

type Config struct {
	Policy       salary.Policy
	Distribution grade.Distribution
	Guard        ledger.TopUpGuard
}

func DefaultConfig() Config {
	return Config{
		Policy:       salary.DefaultPolicy(),
		Distribution: grade.DefaultDistribution(),
		Guard:        ledger.DefaultGuard(),
	}
}

type Orchestrator struct {
	api      PayrollAPI
	ledger   *ledger.Ledger
	state    *store.Store
	sessions session.Store
	cfg      Config

	group singleflight.Group

	// submit serializes transfers and the recovery loop
	submit sync.Mutex

	mu        sync.Mutex
	current   *payroll.BatchResponse
	paid      map[string]decimal.Decimal
	totalPaid decimal.Decimal
}

func New(payrollAPI PayrollAPI, l *ledger.Ledger, state *store.Store, sessions session.Store, cfg Config) *Orchestrator {
	return &Orchestrator{
		api:       payrollAPI,
		ledger:    l,
		state:     state,
		sessions:  sessions,
		cfg:       cfg,
		paid:      make(map[string]decimal.Decimal),
		totalPaid: decimal.Zero,
	}
}

// Current is the batch the orchestrator is working on, if any.
func (o *Orchestrator) Current() (payroll.BatchResponse, State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return payroll.BatchResponse{}, StateNoBatch
	}
	return *o.current, StateOf(o.current)
}

// ========== PREVIEW ==========

type Line struct {
	EmployeeID string
	Code       string
	Name       string
	Grade      int
	salary.Breakdown
}

type Preview struct {
	Base  decimal.Decimal
	Lines []Line
	Total decimal.Decimal
}

// Preview computes the payroll locally from the cached roster.
func (o *Orchestrator) Preview(base decimal.Decimal) (Preview, error) {
	roster, err := o.roster()
	if err != nil {
		return Preview{}, err
	}

	p := Preview{Base: base, Lines: make([]Line, 0, len(roster)), Total: decimal.Zero}
	for _, e := range roster {
		b, err := o.cfg.Policy.Compute(e.Grade, base)
		if err != nil {
			return Preview{}, fmt.Errorf("employee %s: %w", e.Code, err)
		}
		p.Lines = append(p.Lines, Line{EmployeeID: e.ID, Code: e.Code, Name: e.Name, Grade: e.Grade, Breakdown: b})
		p.Total = p.Total.Add(b.Gross)
	}
	return p, nil
}

// roster returns the cached roster once it satisfies the headcount rule.
func (o *Orchestrator) roster() ([]rosterEntry, error) {
	list, ok := o.state.Employees()
	if !ok {
		return nil, ErrRosterNotLoaded
	}
	need := o.cfg.Distribution.RequiredHeadcount()
	if len(list) != need {
		return nil, &HeadcountError{Have: len(list), Need: need}
	}

	out := make([]rosterEntry, 0, len(list))
	for _, e := range list {
		out = append(out, rosterEntry{ID: e.ID, Code: e.Code, Name: e.Name, Grade: e.Grade})
	}
	return out, nil
}

type rosterEntry struct {
	ID    string
	Code  string
	Name  string
	Grade int
}

// ========== BATCHES ==========

// CreateBatch opens a batch for companyID. An already active batch is adopted
// instead. Concurrent calls for one company share a single request.
func (o *Orchestrator) CreateBatch(ctx context.Context, companyID, fundingAccountID string, base decimal.Decimal) (payroll.BatchResponse, error) {
	if !base.IsPositive() {
		return payroll.BatchResponse{}, salary.ErrInvalidBaseSalary
	}
	if !salary.IsCents(base) {
		return payroll.BatchResponse{}, salary.ErrSubCentAmount
	}
	if _, err := o.roster(); err != nil {
		return payroll.BatchResponse{}, err
	}

	v, err, shared := o.group.Do(companyID, func() (any, error) {
		return o.createOrAdopt(ctx, companyID, fundingAccountID, base)
	})
	if err != nil {
		return payroll.BatchResponse{}, err
	}
	if shared {
		slog.Debug("create batch request collapsed", "company_id", companyID)
	}
	return v.(payroll.BatchResponse), nil
}

func (o *Orchestrator) createOrAdopt(ctx context.Context, companyID, fundingAccountID string, base decimal.Decimal) (payroll.BatchResponse, error) {
	batch, err := o.api.CreateBatch(ctx, payroll.CreateBatchRequest{
		CompanyID:        companyID,
		FundingAccountID: fundingAccountID,
		BaseSalary:       base,
	})
	if err != nil {
		if !api.IsCode(err, api.CodeActiveBatchExists) {
			return payroll.BatchResponse{}, err
		}
		pending, perr := o.api.PendingBatch(ctx, companyID)
		if perr != nil {
			return payroll.BatchResponse{}, perr
		}
		if pending == nil {
			// settled between the two calls
			return payroll.BatchResponse{}, err
		}
		slog.Info("adopted active payroll batch", "batch_id", pending.ID, "status", pending.Status)
		batch = *pending
	} else {
		slog.Info("payroll batch created", "batch_id", batch.ID, "total_amount", batch.TotalAmount.String())
	}

	o.remember(ctx, batch)
	return batch, nil
}

// PendingBatch asks the service for the active batch. The cached advisory id
// is replaced by whatever the service answers.
func (o *Orchestrator) PendingBatch(ctx context.Context, companyID string) (*payroll.BatchResponse, error) {
	pending, err := o.api.PendingBatch(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if pending == nil {
		o.state.ClearActiveBatch(companyID)
		o.saveAdvisory(ctx, "", "")
		return nil, nil
	}

	if s, err := o.sessions.Get(ctx); err == nil && s.BatchID != "" && s.BatchID != pending.ID {
		slog.Debug("advisory batch id was stale", "cached", s.BatchID, "active", pending.ID)
	}
	o.remember(ctx, *pending)
	return pending, nil
}

func (o *Orchestrator) remember(ctx context.Context, b payroll.BatchResponse) {
	o.state.PutBatch(b)

	o.mu.Lock()
	if o.current == nil || o.current.ID != b.ID {
		o.paid = make(map[string]decimal.Decimal)
		o.totalPaid = decimal.Zero
	}
	o.current = &b
	o.mu.Unlock()

	o.saveAdvisory(ctx, b.ID, b.Status)
}

func (o *Orchestrator) saveAdvisory(ctx context.Context, batchID, status string) {
	s, err := o.sessions.Get(ctx)
	if err != nil {
		return
	}
	if s.BatchID == batchID && s.BatchStatus == status {
		return
	}
	s.BatchID, s.BatchStatus = batchID, status
	if err := o.sessions.Save(ctx, s); err != nil {
		slog.Warn("failed to save advisory batch", "error", err)
	}
}

// ========== BOOKKEEPING ==========

func (o *Orchestrator) recordPaid(r payroll.TransferResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.paid[r.EmployeeID]; ok {
		return
	}
	o.paid[r.EmployeeID] = r.Amount
	o.totalPaid = o.totalPaid.Add(r.Amount)
}

// TotalPaid sums the gross of every item this orchestrator saw succeed for
// the current batch, across attempts.
func (o *Orchestrator) TotalPaid() decimal.Decimal {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.totalPaid
}

type Summary struct {
	BatchID        string
	State          State
	TotalAmount    decimal.Decimal
	ExecutedAmount decimal.Decimal
	Outstanding    decimal.Decimal
	TotalPaid      decimal.Decimal
	// Reconciled is false when the service executed amounts this
	// orchestrator did not see, for example from an earlier session.
	Reconciled bool
}

func (o *Orchestrator) Summary() Summary {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return Summary{State: StateNoBatch, TotalPaid: o.totalPaid, Reconciled: true}
	}
	b := o.current
	return Summary{
		BatchID:        b.ID,
		State:          StateOf(b),
		TotalAmount:    b.TotalAmount,
		ExecutedAmount: b.ExecutedAmount,
		Outstanding:    b.TotalAmount.Sub(b.ExecutedAmount),
		TotalPaid:      o.totalPaid,
		Reconciled:     o.totalPaid.Equal(b.ExecutedAmount),
	}
}

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/payroll-disbursement/internal/client/api"
	"github.com/cmlabs-hris/payroll-disbursement/internal/client/shortfall"
	"github.com/cmlabs-hris/payroll-disbursement/internal/client/store"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/company"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

const itemPageSize = 100

var (
	ErrDeclined = errors.New("top-up declined")
	// ErrStalled means the remaining failures are not caused by funds.
	ErrStalled = errors.New("remaining transfer failures cannot be fixed by a top-up")
)

// Attempt is the outcome of one transfer submission.
type Attempt struct {
	// Batch as re-read after the submission.
	Batch     payroll.BatchResponse
	Submitted int
	Results   []payroll.TransferResult

	Transferred  decimal.Decimal
	Failed       int
	Unfunded     int
	BalanceAfter decimal.Decimal

	Shortfall    shortfall.Shortfall
	HasShortfall bool
}

// NeedsTopUp is true when some failures were caused by funds.
func (a Attempt) NeedsTopUp() bool {
	return a.HasShortfall && a.Unfunded > 0
}

// Transfer submits every item of batch that is not PAID yet.
func (o *Orchestrator) Transfer(ctx context.Context, batch payroll.BatchResponse) (Attempt, error) {
	o.submit.Lock()
	defer o.submit.Unlock()
	return o.transfer(ctx, batch)
}

func (o *Orchestrator) transfer(ctx context.Context, batch payroll.BatchResponse) (Attempt, error) {
	attempt := Attempt{Batch: batch, Transferred: decimal.Zero}

	ids, err := o.unpaid(ctx, batch.ID)
	if err != nil {
		return attempt, err
	}
	if len(ids) == 0 {
		return attempt, nil
	}
	attempt.Submitted = len(ids)

	resp, err := o.api.Transfer(ctx, payroll.TransferRequest{
		EmployeeIDs: ids,
		Grade6Basic: batch.BaseSalary,
	})
	o.state.Invalidate(store.KindAccount, batch.CompanyID)
	if err != nil {
		// all-or-nothing rejection
		if apiErr, ok := api.AsError(err); ok && apiErr.Code == api.CodeInsufficientFunds {
			if s, ok := shortfall.Parse(apiErr.Message); ok {
				attempt.Failed = len(ids)
				attempt.Unfunded = len(ids)
				attempt.BalanceAfter = s.Available
				attempt.Shortfall, attempt.HasShortfall = s, true
				slog.Info("payroll transfer rejected for funds",
					"batch_id", batch.ID,
					"shortfall", s.Amount().String(),
				)
				return attempt, nil
			}
		}
		return attempt, err
	}

	attempt.Results = resp.TransferResults
	attempt.Transferred = resp.TotalTransferred
	attempt.Failed = resp.TotalFailed
	attempt.BalanceAfter = resp.CompanyBalanceAfter

	var reasons []string
	for _, r := range resp.TransferResults {
		if r.Status == payroll.TransferFailed {
			if _, ok := shortfall.Parse(r.Reason); ok {
				attempt.Unfunded++
			}
			reasons = append(reasons, r.Reason)
			continue
		}
		o.recordPaid(r)
	}
	attempt.Shortfall, attempt.HasShortfall = shortfall.Combine(reasons, resp.CompanyBalanceAfter)

	refreshed, err := o.api.GetBatch(ctx, batch.ID)
	if err != nil {
		slog.Warn("failed to refresh batch after transfer", "batch_id", batch.ID, "error", err)
		refreshed = batch
		refreshed.Status = resp.BatchStatus
	}
	attempt.Batch = refreshed
	o.remember(ctx, refreshed)

	slog.Info("payroll transfer attempt finished",
		"batch_id", batch.ID,
		"submitted", attempt.Submitted,
		"failed", attempt.Failed,
		"transferred", attempt.Transferred.String(),
		"status", refreshed.Status,
	)
	return attempt, nil
}

// unpaid lists the employee ids of every item not yet PAID.
func (o *Orchestrator) unpaid(ctx context.Context, batchID string) ([]string, error) {
	var ids []string
	for page := 1; ; page++ {
		p, err := o.api.ListBatchItems(ctx, batchID, page, itemPageSize, "grade")
		if err != nil {
			return nil, fmt.Errorf("failed to list batch items: %w", err)
		}
		for _, it := range p.Items {
			if payroll.ItemStatus(it.Status) != payroll.ItemStatusPaid {
				ids = append(ids, it.EmployeeID)
			}
		}
		if len(p.Items) < itemPageSize || page >= p.Meta.TotalPages {
			break
		}
	}
	return ids, nil
}

// ========== RECOVERY LOOP ==========

// TopUpPrompt is what a prompter is asked to fill in.
type TopUpPrompt struct {
	BatchID   string
	Shortfall decimal.Decimal
	Required  decimal.Decimal
	Available decimal.Decimal
	Guard     TopUpLimits
	// Rejected is set when the previous answer failed the guard.
	Rejected error
}

type TopUpLimits struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// TopUpPrompter asks for a top-up amount. ok false declines.
type TopUpPrompter interface {
	PromptTopUp(ctx context.Context, p TopUpPrompt) (amount decimal.Decimal, ok bool, err error)
}

type PrompterFunc func(ctx context.Context, p TopUpPrompt) (decimal.Decimal, bool, error)

func (f PrompterFunc) PromptTopUp(ctx context.Context, p TopUpPrompt) (decimal.Decimal, bool, error) {
	return f(ctx, p)
}

type Outcome struct {
	Batch    payroll.BatchResponse
	Attempts []Attempt
	TopUps   []decimal.Decimal
	Declined bool
}

// Done is true when the last attempt left nothing unpaid.
func (o Outcome) Done() bool {
	if len(o.Attempts) == 0 {
		return false
	}
	return o.Attempts[len(o.Attempts)-1].Failed == 0
}

// Run transfers batch and, while funds are short, asks prompter for a top-up
// and retries the unpaid items. It stops when nothing fails, the prompter
// declines, or ctx is done.
func (o *Orchestrator) Run(ctx context.Context, companyID string, batch payroll.BatchResponse, prompter TopUpPrompter) (Outcome, error) {
	o.submit.Lock()
	defer o.submit.Unlock()

	out := Outcome{Batch: batch}
	retriedWithoutTopUp := false
	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		attempt, err := o.transfer(ctx, out.Batch)
		if err != nil {
			return out, err
		}
		out.Attempts = append(out.Attempts, attempt)
		out.Batch = attempt.Batch

		if attempt.Failed == 0 {
			return out, nil
		}
		if !attempt.NeedsTopUp() {
			return out, ErrStalled
		}

		gap := attempt.Shortfall.Amount()
		if gap.IsZero() {
			// the account was credited elsewhere since the failures
			if retriedWithoutTopUp {
				return out, ErrStalled
			}
			retriedWithoutTopUp = true
			continue
		}
		retriedWithoutTopUp = false

		amount, err := o.askTopUp(ctx, prompter, batch.ID, attempt.Shortfall)
		if errors.Is(err, ErrDeclined) {
			out.Declined = true
			return out, nil
		}
		if err != nil {
			return out, err
		}

		if _, err := o.ledger.TopUp(ctx, companyID, company.TopUpRequest{
			Amount:      amount,
			Description: "Payroll top-up for batch " + batch.ID,
		}); err != nil {
			return out, err
		}
		out.TopUps = append(out.TopUps, amount)
	}
}

func (o *Orchestrator) askTopUp(ctx context.Context, prompter TopUpPrompter, batchID string, s shortfall.Shortfall) (decimal.Decimal, error) {
	gap := s.Amount()
	guard := o.cfg.Guard.WithFloor(gap)
	if guard.Max.IsPositive() && gap.GreaterThan(guard.Max) {
		// cannot be covered in one top-up
		guard.Min = decimal.Zero
	}

	prompt := TopUpPrompt{
		BatchID:   batchID,
		Shortfall: gap,
		Required:  s.Required,
		Available: s.Available,
		Guard:     TopUpLimits{Min: guard.Min, Max: guard.Max},
	}
	for {
		if err := ctx.Err(); err != nil {
			return decimal.Zero, err
		}
		amount, ok, err := prompter.PromptTopUp(ctx, prompt)
		if err != nil {
			return decimal.Zero, err
		}
		if !ok {
			return decimal.Zero, ErrDeclined
		}
		if err := guard.Check(amount); err != nil {
			prompt.Rejected = err
			continue
		}
		return amount, nil
	}
}

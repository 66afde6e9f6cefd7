package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/payroll"
)

type PayrollJobs struct {
	payrollService payroll.PayrollService
	interval       time.Duration
}

// NewPayrollJobs checks for stuck batches every interval.
func NewPayrollJobs(payrollService payroll.PayrollService, interval time.Duration) *PayrollJobs {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PayrollJobs{
		payrollService: payrollService,
		interval:       interval,
	}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("release_stale_payroll_batches", j.interval, j.ReleaseStaleBatches)
}

// ReleaseStaleBatches settles batches a crashed or abandoned transfer left in
// PROCESSING so the company can retry.
func (j *PayrollJobs) ReleaseStaleBatches(ctx context.Context) error {
	released, err := j.payrollService.ReleaseStaleBatches(ctx)
	if err != nil {
		return err
	}
	if released > 0 {
		slog.Info("Cron: released stale payroll batches", "count", released)
	}
	return nil
}

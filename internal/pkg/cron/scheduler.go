// Package cron runs the payroll service's periodic maintenance jobs.
package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Job is one periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single run. Zero uses Interval.
	Timeout time.Duration
	Fn      func(ctx context.Context) error
}

type entry struct {
	Job
	running atomic.Bool
}

// Scheduler runs each job on its own ticker. A tick that arrives while the
// previous run of the same job is still going is skipped.
type Scheduler struct {
	mu     sync.Mutex
	jobs   []*entry
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) AddJob(name string, interval time.Duration, fn func(ctx context.Context) error) {
	s.Add(Job{Name: name, Interval: interval, Fn: fn})
}

func (s *Scheduler) Add(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, &entry{Job: job})
	slog.Info("Cron job registered", "name", job.Name, "interval", job.Interval)
}

// Start runs every job now and then on its interval until ctx is done or
// Stop is called. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	for _, e := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, e)
	}
	slog.Info("Cron scheduler started", "job_count", len(s.jobs))
}

// Stop cancels all jobs and waits for running ones to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	s.wg.Wait()
	slog.Info("Cron scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	defer s.wg.Done()

	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()

	_ = s.run(ctx, e)
	for {
		select {
		case <-ctx.Done():
			slog.Debug("Cron job stopping", "name", e.Name)
			return
		case <-ticker.C:
			_ = s.run(ctx, e)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, e *entry) error {
	if !e.running.CompareAndSwap(false, true) {
		slog.Warn("Cron job still running, tick skipped", "name", e.Name)
		return nil
	}
	defer e.running.Store(false)

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = e.Interval
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := e.Fn(runCtx)
	if err != nil {
		slog.Error("Cron job failed", "name", e.Name, "error", err, "duration", time.Since(start))
		return err
	}
	slog.Debug("Cron job completed", "name", e.Name, "duration", time.Since(start))
	return nil
}

// RunOnce runs every job once in registration order and joins their errors.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	jobs := append([]*entry(nil), s.jobs...)
	s.mu.Unlock()

	var errs []error
	for _, e := range jobs {
		if err := s.run(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Name, err))
		}
	}
	return errors.Join(errs...)
}

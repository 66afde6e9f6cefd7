package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cmlabs-hris/payroll-disbursement/internal/client/api"
	"github.com/cmlabs-hris/payroll-disbursement/internal/client/directory"
	"github.com/cmlabs-hris/payroll-disbursement/internal/client/ledger"
	"github.com/cmlabs-hris/payroll-disbursement/internal/client/orchestrator"
	"github.com/cmlabs-hris/payroll-disbursement/internal/client/session"
	"github.com/cmlabs-hris/payroll-disbursement/internal/client/store"
	"github.com/cmlabs-hris/payroll-disbursement/internal/config"
)

// app holds the client core for one invocation. It is wired lazily so
// --help works without a reachable backend.
type app struct {
	cfg *config.ClientConfig
	in  *bufio.Reader
	out io.Writer

	sessions session.Store
	client   *api.Client
	state    *store.Store
	dir      *directory.Directory
	ledger   *ledger.Ledger
	orch     *orchestrator.Orchestrator
	closers  []func() error
}

func newApp(cfg *config.ClientConfig, in io.Reader, out io.Writer) *app {
	return &app{cfg: cfg, in: bufio.NewReader(in), out: out}
}

func (a *app) setupLogger(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func (a *app) init(ctx context.Context) error {
	if a.client != nil {
		return nil
	}

	if a.sessions == nil {
		if a.cfg.Redis.Addr != "" {
			rdb, err := session.NewRedisClient(ctx, a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB)
			if err != nil {
				return err
			}
			a.closers = append(a.closers, rdb.Close)
			a.sessions = session.NewRedisStore(rdb, a.cfg.Redis.KeyPrefix)
		} else {
			slog.Debug("REDIS_ADDR not set, session lasts for this command only")
			a.sessions = session.NewMemoryStore()
		}
	}

	client, err := api.New(a.cfg.BaseURL, a.sessions, api.Options{
		Timeout:        a.cfg.Timeout,
		RetryAttempts:  a.cfg.RetryAttempts,
		RetryBaseDelay: a.cfg.RetryBaseDelay,
	})
	if err != nil {
		return err
	}

	a.client = client
	a.state = store.New()
	a.dir = directory.New(client, a.state, a.cfg.Policy.Distribution)
	a.ledger = ledger.New(client, a.state)
	a.orch = orchestrator.New(client, a.ledger, a.state, a.sessions, orchestrator.Config{
		Policy:       a.cfg.Policy.Salary,
		Distribution: a.cfg.Policy.Distribution,
		Guard:        a.guard(),
	})
	return nil
}

func (a *app) guard() ledger.TopUpGuard {
	return ledger.TopUpGuard{Max: a.cfg.TopUpMax}
}

// signedIn returns the stored session, signing in with the configured
// credentials when there is none.
func (a *app) signedIn(ctx context.Context) (session.Session, error) {
	s, err := a.sessions.Get(ctx)
	if err == nil && !s.Expired(time.Now()) && s.CompanyID != "" {
		return s, nil
	}
	if err != nil && !errors.Is(err, session.ErrNoSession) {
		return session.Session{}, err
	}
	if a.cfg.Username == "" || a.cfg.Password == "" {
		return session.Session{}, session.ErrNoSession
	}
	slog.Debug("signing in with configured credentials", "username", a.cfg.Username)
	return a.client.Login(ctx, a.cfg.Username, a.cfg.Password)
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

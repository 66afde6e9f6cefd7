// payrollctl drives the payroll service from a terminal: roster, funding
// account, and the calculate, transfer and top-up loop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmlabs-hris/payroll-disbursement/internal/client/orchestrator"
	"github.com/cmlabs-hris/payroll-disbursement/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	a := newApp(cfg, os.Stdin, os.Stdout)
	defer a.close()

	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		slog.Debug("command failed", "error", err)
		fmt.Fprintln(os.Stderr, "error:", orchestrator.UserMessage(err))
		os.Exit(1)
	}
}

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/payroll-disbursement/internal/client/directory"
	"github.com/cmlabs-hris/payroll-disbursement/internal/client/orchestrator"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/company"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var errNoActiveBatch = errors.New("no active payroll batch, run calculate first")

func newRootCmd(a *app) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "payrollctl",
		Short:         "Run payroll against the payroll service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.setupLogger(verbose)
			return a.init(cmd.Context())
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests and retries to stderr")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newEmployeesCmd(a),
		newAccountCmd(a),
		newTopUpCmd(a),
		newTransactionsCmd(a),
		newCalculateCmd(a),
		newStatusCmd(a),
		newTransferCmd(a),
		newRunCmd(a),
	)
	return root
}

// ========== AUTH ==========

func newLoginCmd(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				username = a.cfg.Username
			}
			if password == "" {
				password = a.cfg.Password
			}
			if password == "" {
				a.printf("Password: ")
				line, err := a.in.ReadString('\n')
				if err != nil && line == "" {
					return err
				}
				password = strings.TrimSpace(line)
			}

			s, err := a.client.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			a.printf("Signed in as %s (%s), funding account %s\n", s.Username, s.Role, s.AccountNumber)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (default PAYROLL_USERNAME)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (default PAYROLL_PASSWORD, else prompted)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the token and forget the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Logout(cmd.Context()); err != nil {
				return err
			}
			a.printf("Signed out\n")
			return nil
		},
	}
}

// ========== EMPLOYEES ==========

func newEmployeesCmd(a *app) *cobra.Command {
	var q directory.Query
	var sortKey string
	cmd := &cobra.Command{
		Use:   "employees",
		Short: "List the roster with local search, filter and sort",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.signedIn(cmd.Context()); err != nil {
				return err
			}
			roster, err := a.dir.Reload(cmd.Context())
			if err != nil {
				return err
			}

			q.SortKey = employee.SortKey(sortKey)
			res, err := a.dir.View(q)
			if err != nil {
				return err
			}
			printEmployees(a.out, res)

			ranks := make([]int, 0, len(roster))
			for _, e := range roster {
				ranks = append(ranks, e.Grade)
			}
			printVacancies(a.out, a.cfg.Policy.Distribution.Vacancies(ranks))
			return nil
		},
	}
	cmd.Flags().StringVarP(&q.Search, "search", "s", "", "match name, code or mobile")
	cmd.Flags().IntVarP(&q.Grade, "grade", "g", 0, "only this grade")
	cmd.Flags().StringVar(&sortKey, "sort", "code", "code, name, grade or balance")
	cmd.Flags().BoolVar(&q.Desc, "desc", false, "sort descending")
	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&q.Size, "size", 10, "page size")
	return cmd
}

// ========== COMPANY ==========

func newAccountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "account",
		Short: "Show the funding account balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			account, err := a.ledger.Account(cmd.Context(), s.CompanyID)
			if err != nil {
				return err
			}
			printAccount(a.out, account)
			return nil
		},
	}
}

func newTopUpCmd(a *app) *cobra.Command {
	var amount, description string
	cmd := &cobra.Command{
		Use:   "topup",
		Short: "Credit the funding account",
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseAmount(amount)
			if err != nil {
				return err
			}
			if err := a.guard().Check(value); err != nil {
				return err
			}
			s, err := a.signedIn(cmd.Context())
			if err != nil {
				return err
			}

			account, err := a.ledger.TopUp(cmd.Context(), s.CompanyID, company.TopUpRequest{Amount: value, Description: description})
			if err != nil {
				return err
			}
			a.printf("Topped up %s\n", money(value))
			printAccount(a.out, account)
			return nil
		},
	}
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "amount to credit")
	cmd.Flags().StringVarP(&description, "description", "d", "Manual top-up", "ledger description")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newTransactionsCmd(a *app) *cobra.Command {
	var page, size int
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List funding account transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			result, err := a.ledger.Transactions(cmd.Context(), s.CompanyID, page, size)
			if err != nil {
				return err
			}
			printTransactions(a.out, result.Items, result.Meta.Page, result.Meta.TotalPages, result.Meta.TotalItems)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&size, "size", 20, "page size")
	return cmd
}

// ========== PAYROLL ==========

func newCalculateCmd(a *app) *cobra.Command {
	var base string
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Preview salaries and open a payroll batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.calculate(cmd, base)
			return err
		},
	}
	cmd.Flags().StringVarP(&base, "base", "b", "", "grade 6 basic salary")
	_ = cmd.MarkFlagRequired("base")
	return cmd
}

func (a *app) calculate(cmd *cobra.Command, base string) (payroll.BatchResponse, error) {
	value, err := parseAmount(base)
	if err != nil {
		return payroll.BatchResponse{}, err
	}
	s, err := a.signedIn(cmd.Context())
	if err != nil {
		return payroll.BatchResponse{}, err
	}
	if _, err := a.dir.Reload(cmd.Context()); err != nil {
		return payroll.BatchResponse{}, err
	}

	preview, err := a.orch.Preview(value)
	if err != nil {
		return payroll.BatchResponse{}, err
	}
	printPreview(a.out, preview)

	batch, err := a.orch.CreateBatch(cmd.Context(), s.CompanyID, s.AccountNumber, value)
	if err != nil {
		return payroll.BatchResponse{}, err
	}
	if !batch.BaseSalary.Equal(value) {
		a.printf("An active batch with base %s already exists and was adopted\n", money(batch.BaseSalary))
	}
	printBatch(a.out, batch)
	return batch, nil
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the account, roster size and active batch",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := a.orch.Sync(cmd.Context(), s.CompanyID, a.dir)
			if err != nil {
				return err
			}
			printAccount(a.out, snap.Account)
			a.printf("%d employees on the roster\n", len(snap.Roster))
			if snap.Batch == nil {
				a.printf("No active payroll batch\n")
				return nil
			}
			printBatch(a.out, *snap.Batch)
			return nil
		},
	}
}

func newTransferCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer",
		Short: "Pay every unpaid item of the active batch once",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			pending, err := a.orch.PendingBatch(cmd.Context(), s.CompanyID)
			if err != nil {
				return err
			}
			if pending == nil {
				return errNoActiveBatch
			}

			attempt, err := a.orch.Transfer(cmd.Context(), *pending)
			if err != nil {
				return err
			}
			printAttempt(a.out, 1, attempt)
			if attempt.NeedsTopUp() {
				gap := attempt.Shortfall.Amount()
				a.printf("Shortfall %s. Run `payrollctl topup --amount %s` and transfer again.\n", money(gap), gap.StringFixed(2))
			}
			printSummary(a.out, a.orch.Summary())
			return nil
		},
	}
}

func newRunCmd(a *app) *cobra.Command {
	var base string
	var yes bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Calculate if needed, transfer, and top up until everyone is paid",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.signedIn(cmd.Context())
			if err != nil {
				return err
			}

			pending, err := a.orch.PendingBatch(cmd.Context(), s.CompanyID)
			if err != nil {
				return err
			}
			var batch payroll.BatchResponse
			if pending != nil {
				a.printf("Resuming active batch %s\n", pending.ID)
				batch = *pending
			} else {
				if base == "" {
					return errors.New("no active payroll batch, pass --base to calculate one")
				}
				if batch, err = a.calculate(cmd, base); err != nil {
					return err
				}
			}

			var prompter orchestrator.TopUpPrompter = newStdinPrompter(a.in, a.out)
			if yes {
				prompter = acceptShortfall(a.out)
			}

			out, err := a.orch.Run(cmd.Context(), s.CompanyID, batch, prompter)
			for i, attempt := range out.Attempts {
				printAttempt(a.out, i+1, attempt)
			}
			for _, amount := range out.TopUps {
				a.printf("Topped up %s\n", money(amount))
			}
			if err != nil {
				return err
			}
			if out.Declined {
				a.printf("Stopped with unpaid items. Run `payrollctl run` to resume.\n")
			}
			printSummary(a.out, a.orch.Summary())
			return nil
		},
	}
	cmd.Flags().StringVarP(&base, "base", "b", "", "grade 6 basic salary, used when no batch is active")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "top up exactly the shortfall without asking")
	return cmd
}

func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return decimal.Zero, fmt.Errorf("amount is required")
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a valid amount", raw)
	}
	return value, nil
}

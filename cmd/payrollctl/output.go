package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/cmlabs-hris/payroll-disbursement/internal/client/directory"
	"github.com/cmlabs-hris/payroll-disbursement/internal/client/orchestrator"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/company"
	"github.com/cmlabs-hris/payroll-disbursement/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printEmployees(w io.Writer, res directory.Result) {
	tw := table(w)
	fmt.Fprintln(tw, "CODE\tNAME\tGRADE\tMOBILE\tACCOUNT\tBALANCE")
	for _, e := range res.Items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", e.Code, e.Name, e.Grade, e.Mobile, e.Account.Number, money(e.Account.Balance))
	}
	tw.Flush()
	fmt.Fprintf(w, "page %d/%d, %d employees\n", res.Page, res.TotalPages, res.Total)
}

func printVacancies(w io.Writer, vacancies map[int]int) {
	if len(vacancies) == 0 {
		return
	}
	ranks := make([]int, 0, len(vacancies))
	for r := range vacancies {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)

	fmt.Fprint(w, "open slots:")
	for _, r := range ranks {
		fmt.Fprintf(w, " grade %d x%d", r, vacancies[r])
	}
	fmt.Fprintln(w)
}

func printAccount(w io.Writer, a company.AccountResponse) {
	fmt.Fprintf(w, "%s  %s %s (%s)\nbalance %s\n", a.Name, a.BankName, a.AccountNumber, a.Branch, money(a.CurrentBalance))
}

func printTransactions(w io.Writer, items []company.TransactionResponse, page, pages int, total int64) {
	tw := table(w)
	fmt.Fprintln(tw, "DATE\tTYPE\tAMOUNT\tBALANCE AFTER\tDESCRIPTION")
	for _, t := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.CreatedAt.Format("2006-01-02 15:04"), t.Type, money(t.Amount), money(t.BalanceAfter), t.Description)
	}
	tw.Flush()
	fmt.Fprintf(w, "page %d/%d, %d transactions\n", page, pages, total)
}

func printPreview(w io.Writer, p orchestrator.Preview) {
	tw := table(w)
	fmt.Fprintln(tw, "CODE\tNAME\tGRADE\tBASIC\tHOUSE RENT\tMEDICAL\tGROSS")
	for _, l := range p.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n", l.Code, l.Name, l.Grade,
			money(l.Basic), money(l.HouseRent), money(l.MedicalAllowance), money(l.Gross))
	}
	tw.Flush()
	fmt.Fprintf(w, "total payroll %s for base %s\n", money(p.Total), money(p.Base))
}

func printBatch(w io.Writer, b payroll.BatchResponse) {
	fmt.Fprintf(w, "batch %s (%s) %s\n  total %s, executed %s, %d items\n",
		b.ID, b.PayrollMonth, b.Status, money(b.TotalAmount), money(b.ExecutedAmount), b.ItemCount)
}

func printAttempt(w io.Writer, n int, a orchestrator.Attempt) {
	if a.Submitted == 0 {
		fmt.Fprintf(w, "attempt %d: nothing left to pay\n", n)
		return
	}
	fmt.Fprintf(w, "attempt %d: %d submitted, %d failed, %s transferred, balance %s\n",
		n, a.Submitted, a.Failed, money(a.Transferred), money(a.BalanceAfter))
	if len(a.Results) == 0 {
		return
	}
	tw := table(w)
	for _, r := range a.Results {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", r.EmployeeCode, r.Status, money(r.Amount), r.Reason)
	}
	tw.Flush()
}

func printSummary(w io.Writer, s orchestrator.Summary) {
	if s.State == orchestrator.StateNoBatch {
		return
	}
	fmt.Fprintf(w, "%s: paid %s of %s, outstanding %s\n", s.State, money(s.ExecutedAmount), money(s.TotalAmount), money(s.Outstanding))
	if !s.Reconciled {
		fmt.Fprintf(w, "  %s of that was paid by this run\n", money(s.TotalPaid))
	}
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cmlabs-hris/payroll-disbursement/internal/client/orchestrator"
	"github.com/shopspring/decimal"
)

// stdinPrompter asks for top-up amounts on the terminal. An empty answer
// accepts the shortfall; n declines.
type stdinPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newStdinPrompter(in *bufio.Reader, out io.Writer) *stdinPrompter {
	return &stdinPrompter{in: in, out: out}
}

func (p *stdinPrompter) PromptTopUp(ctx context.Context, tp orchestrator.TopUpPrompt) (decimal.Decimal, bool, error) {
	if tp.Rejected != nil {
		fmt.Fprintf(p.out, "  %s\n", orchestrator.UserMessage(tp.Rejected))
	}
	fmt.Fprintf(p.out, "Insufficient funds: required %s, available %s, short %s.\n",
		money(tp.Required), money(tp.Available), money(tp.Shortfall))

	for {
		if err := ctx.Err(); err != nil {
			return decimal.Zero, false, err
		}
		fmt.Fprintf(p.out, "Top up amount [%s] or n to stop: ", money(tp.Shortfall))

		line, err := p.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return decimal.Zero, false, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		if errors.Is(err, io.EOF) && answer == "" {
			// no terminal to ask
			return decimal.Zero, false, nil
		}

		switch answer {
		case "":
			return tp.Shortfall, true, nil
		case "n", "no", "q", "quit":
			return decimal.Zero, false, nil
		}
		amount, perr := parseAmount(answer)
		if perr != nil {
			fmt.Fprintf(p.out, "  %s\n", perr)
			continue
		}
		return amount, true, nil
	}
}

// acceptShortfall tops up exactly what is missing.
func acceptShortfall(out io.Writer) orchestrator.TopUpPrompter {
	return orchestrator.PrompterFunc(func(ctx context.Context, tp orchestrator.TopUpPrompt) (decimal.Decimal, bool, error) {
		amount := tp.Shortfall
		if tp.Guard.Max.IsPositive() && amount.GreaterThan(tp.Guard.Max) {
			amount = tp.Guard.Max
		}
		fmt.Fprintf(out, "Topping up shortfall %s\n", money(amount))
		return amount, true, nil
	})
}

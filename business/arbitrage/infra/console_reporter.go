// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fd1az/dynamic-arb/business/arbitrage/app"
	"github.com/fd1az/dynamic-arb/business/arbitrage/domain"
)

var _ app.Reporter = (*ConsoleReporter)(nil)

// ConsoleReporter prints queued executions and failed cycles for CLI output.
// Cycles without an opportunity are left to the structured logs.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleReporter creates a ConsoleReporter writing to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return NewConsoleReporterTo(os.Stdout)
}

// NewConsoleReporterTo creates a ConsoleReporter writing to w.
func NewConsoleReporterTo(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: w}
}

// ReportCycle implements app.Reporter.
func (r *ConsoleReporter) ReportCycle(_ context.Context, rep app.CycleReport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case rep.Err != nil:
		fmt.Fprintf(r.out, "[%s] evaluation failed: %v\n", rep.At.Format("15:04:05"), rep.Err)
	case rep.Action != nil:
		r.printAction(rep)
	}
}

func (r *ConsoleReporter) printAction(rep app.CycleReport) {
	a := rep.Action
	res := rep.Result

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintln(r.out, "ARBITRAGE EXECUTION QUEUED")
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintf(r.out, "Action:         %s\n", a.ID)
	fmt.Fprintf(r.out, "Timestamp:      %s\n", a.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(r.out, "Buy:            %s %s\n", a.Buying.Connector, a.Buying.Pair)
	fmt.Fprintf(r.out, "Sell:           %s %s\n", a.Selling.Connector, a.Selling.Pair)
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintf(r.out, "Amount:         %s %s\n", a.OrderAmount, a.Buying.Pair.Base)
	fmt.Fprintf(r.out, "Profit:         %s\n", domain.FormatPercent(&res.BestProfit))
	fmt.Fprintf(r.out, "Min required:   %s\n", domain.FormatPercent(&a.MinProfitability))
	fmt.Fprintf(r.out, "Other way:      %s\n", domain.FormatPercent(res.CEXSellProfit))
	fmt.Fprintf(r.out, "Sizes priced:   %d (stopped on %s) in %s\n", res.SizesEvaluated, res.Halt, rep.Duration.Round(time.Millisecond))
	fmt.Fprintln(r.out, "================================================================================")
}

// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dynamic-arb/business/arbitrage/domain"
	pricing "github.com/fd1az/dynamic-arb/business/pricing/domain"
)

// Venue is what the scanner needs from each connector: balances and lot rules.
type Venue interface {
	GetAvailableBalance(ctx context.Context, asset string) (decimal.Decimal, error)
	QuantizeOrderAmount(pair pricing.Pair, amount decimal.Decimal) decimal.Decimal
}

// ProposalSource quotes both markets for a size and returns arbitrage proposals.
type ProposalSource interface {
	GetQuoteProposals(
		ctx context.Context,
		primary, secondary pricing.Market,
		primaryFees, secondaryFees []pricing.TokenAmount,
		amount decimal.Decimal,
	) ([]pricing.Proposal, error)
}

// ExecutionTracker lists executions known to the execution subsystem.
type ExecutionTracker interface {
	GetExecutions(ctx context.Context) ([]domain.ExecutionRecord, error)
}

// ExecutionSink receives the actions collected on each tick.
type ExecutionSink interface {
	Submit(ctx context.Context, action domain.CreateExecutionAction) error
	Stop(ctx context.Context, action domain.StopExecutionAction) error
}

// CycleReport summarizes one evaluation cycle for presentation.
type CycleReport struct {
	At       time.Time
	Duration time.Duration
	Result   domain.ScanResult
	Action   *domain.CreateExecutionAction
	Err      error
}

// Reporter presents evaluation cycles to an operator.
type Reporter interface {
	ReportCycle(ctx context.Context, report CycleReport)
}

// NopReporter discards reports.
type NopReporter struct{}

func (NopReporter) ReportCycle(context.Context, CycleReport) {}

// SizeScanner searches for the best trade size.
type SizeScanner interface {
	Scan(ctx context.Context) (domain.ScanResult, error)
}
